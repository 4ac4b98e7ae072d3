package aspyre

import (
	"errors"
	"testing"
)

func TestRegistryFindOrder(t *testing.T) {
	reg := newRegistry(NewTypes())
	first := &Resource{}
	second := &Resource{}
	third := &Resource{}

	if err := reg.add(first, false, Path("/items/<int:id>")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.add(second, false, Path("/other")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.add(third, false, Path("/items/<str:name>")); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := reg.find("", "/items/42")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Resource != first || matches[1].Resource != third {
		t.Error("matches are not in registration order")
	}
	if matches[0].Args["id"] != 42 {
		t.Errorf("first match id = %v, want int 42", matches[0].Args["id"])
	}
	if matches[1].Args["name"] != "42" {
		t.Errorf("second match name = %v, want %q", matches[1].Args["name"], "42")
	}
}

func TestRegistryDeduplicatesByResource(t *testing.T) {
	reg := newRegistry(NewTypes())
	r := &Resource{}

	// Both templates match /things/7; the resource must appear once, with
	// the arguments of its first-registered template.
	if err := reg.add(r, false, Path("/things/<int:id>"), Path("/things/<str:slug>")); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := reg.find("", "/things/7")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].Args["id"] != 7 {
		t.Errorf("args = %v, want id from the first template", matches[0].Args)
	}
}

func TestRegistryNoMatch(t *testing.T) {
	reg := newRegistry(NewTypes())
	if err := reg.add(&Resource{}, false, Path("/present")); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := reg.find("", "/no/such/route")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches = %v, want none", matches)
	}
}

func TestRegistryConversionFailureAtMatchTime(t *testing.T) {
	reg := newRegistry(NewTypes())
	if err := reg.add(&Resource{}, false, Path("/products/<int:product_id>")); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := reg.find("", "/products/abc")

	var cerr *ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *ConversionError", err)
	}
	if cerr.Arg != "product_id" || cerr.Raw != "abc" || cerr.Tag != "int" {
		t.Errorf("ConversionError = %+v", cerr)
	}
}

func TestRegistryAddRejectsMalformedTemplate(t *testing.T) {
	reg := newRegistry(NewTypes())

	err := reg.add(&Resource{}, false, Path("no-leading-slash"))

	var merr *MalformedRouteError
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v, want *MalformedRouteError", err)
	}
	if len(reg.routes) != 0 {
		t.Error("failed template must not register a route")
	}
}

func TestRegistryHostRouting(t *testing.T) {
	reg := newRegistry(NewTypes())
	api := &Resource{}
	web := &Resource{}

	if err := reg.add(api, false, HostPath("api.example.com", "/status")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.add(web, false, Path("/status")); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := reg.find("api.example.com", "/status")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}

	matches, err = reg.find("www.example.com", "/status")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 1 || matches[0].Resource != web {
		t.Errorf("matches = %v, want only the host-agnostic route", matches)
	}
}
