package aspyre

import (
	"errors"
	"testing"
)

func mustCompile(t *testing.T, tpl Template) *CompiledPattern {
	t.Helper()
	p, err := compile(NewTypes(), tpl)
	if err != nil {
		t.Fatalf("compile(%v): %v", tpl, err)
	}
	return p
}

func rawArgs(caps []capture) map[string]string {
	m := make(map[string]string, len(caps))
	for _, c := range caps {
		m[c.Name] = c.raw
	}
	return m
}

func TestCompileMatch(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		host     string
		path     string
		want     map[string]string
		noMatch  bool
	}{
		{
			name:     "literal path",
			template: Path("/products"),
			path:     "/products",
			want:     map[string]string{},
		},
		{
			name:     "root path",
			template: Path("/"),
			path:     "/",
			want:     map[string]string{},
		},
		{
			name:     "single placeholder",
			template: Path("/products/<int:product_id>"),
			path:     "/products/1234",
			want:     map[string]string{"product_id": "1234"},
		},
		{
			name:     "multiple placeholders",
			template: Path("/users/<str:name>/orders/<int:order>"),
			path:     "/users/ada/orders/7",
			want:     map[string]string{"name": "ada", "order": "7"},
		},
		{
			name:     "trailing slash stripped from template",
			template: Path("/products/"),
			path:     "/products",
			want:     map[string]string{},
		},
		{
			name:     "prefix does not match",
			template: Path("/products"),
			path:     "/products/1234",
			noMatch:  true,
		},
		{
			name:     "suffix does not match",
			template: Path("/products/<int:id>"),
			path:     "/v2/products/9",
			noMatch:  true,
		},
		{
			name:     "placeholder does not cross slashes",
			template: Path("/files/<str:name>"),
			path:     "/files/a/b",
			noMatch:  true,
		},
		{
			name:     "literal regex metacharacters are escaped",
			template: Path("/a.b/<int:id>"),
			path:     "/aXb/3",
			noMatch:  true,
		},
		{
			name:     "host and path both match",
			template: HostPath("<str:tenant>.example.com", "/dashboard"),
			host:     "acme.example.com",
			path:     "/dashboard",
			want:     map[string]string{"tenant": "acme"},
		},
		{
			name:     "host mismatch rejects",
			template: HostPath("<str:tenant>.example.com", "/dashboard"),
			host:     "acme.example.org",
			path:     "/dashboard",
			noMatch:  true,
		},
		{
			name:     "path mismatch rejects despite host match",
			template: HostPath("<str:tenant>.example.com", "/dashboard"),
			host:     "acme.example.com",
			path:     "/settings",
			noMatch:  true,
		},
		{
			name:     "host only template",
			template: Template{Host: "api.example.com"},
			host:     "api.example.com",
			path:     "/anything",
			want:     map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.template)

			caps, ok := p.match(tt.host, tt.path)
			if tt.noMatch {
				if ok {
					t.Fatalf("match(%q, %q) = %v, want no match", tt.host, tt.path, rawArgs(caps))
				}
				return
			}
			if !ok {
				t.Fatalf("match(%q, %q) did not match", tt.host, tt.path)
			}
			got := rawArgs(caps)
			if len(got) != len(tt.want) {
				t.Fatalf("captures = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("capture %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	types := NewTypes()

	malformed := []struct {
		name     string
		template Template
	}{
		{name: "path without leading slash", template: Path("products/<int:id>")},
		{name: "empty template", template: Template{}},
		{name: "placeholder without name", template: Path("/p/<int>")},
		{name: "placeholder without type", template: Path("/p/<:id>")},
		{name: "empty placeholder", template: Path("/p/<>")},
		{name: "duplicate argument name", template: Path("/p/<int:id>/<str:id>")},
		{name: "duplicate name across host and path", template: HostPath("<str:id>.example.com", "/p/<int:id>")},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(types, tt.template)

			var merr *MalformedRouteError
			if !errors.As(err, &merr) {
				t.Fatalf("compile(%v) error = %v, want *MalformedRouteError", tt.template, err)
			}
		})
	}

	t.Run("unknown type tag", func(t *testing.T) {
		_, err := compile(types, Path("/p/<slug:id>"))

		var uerr *UnknownTypeError
		if !errors.As(err, &uerr) {
			t.Fatalf("error = %v, want *UnknownTypeError", err)
		}
	})
}

func TestCompileArgsOrder(t *testing.T) {
	p := mustCompile(t, HostPath("<str:tenant>.example.com", "/orders/<int:order>/items/<int:item>"))

	want := []ArgDesc{
		{Name: "tenant", Tag: "str"},
		{Name: "order", Tag: "int"},
		{Name: "item", Tag: "int"},
	}
	got := p.Args()
	if len(got) != len(want) {
		t.Fatalf("Args() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Args()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCompileRegex(t *testing.T) {
	types := NewTypes()

	t.Run("typed explicit group", func(t *testing.T) {
		p, err := compileRegex(types, Path(`/ip/(?P<str:ip>(?:\d{1,3}\.){3}\d{1,3})`))
		if err != nil {
			t.Fatalf("compileRegex: %v", err)
		}

		caps, ok := p.match("", "/ip/10.0.0.1")
		if !ok {
			t.Fatal("expected match")
		}
		if got := rawArgs(caps)["ip"]; got != "10.0.0.1" {
			t.Errorf("ip capture = %q, want %q", got, "10.0.0.1")
		}

		if _, ok := p.match("", "/ip/not-an-ip"); ok {
			t.Error("matched a non-IP path")
		}
	})

	t.Run("plain named group defaults to str", func(t *testing.T) {
		p, err := compileRegex(types, Path(`/files/(?P<name>[a-z]+)\.txt`))
		if err != nil {
			t.Fatalf("compileRegex: %v", err)
		}
		if got := p.Args()[0]; got != (ArgDesc{Name: "name", Tag: "str"}) {
			t.Errorf("descriptor = %v, want {name str}", got)
		}

		caps, ok := p.match("", "/files/readme.txt")
		if !ok {
			t.Fatal("expected match")
		}
		if got := rawArgs(caps)["name"]; got != "readme" {
			t.Errorf("name capture = %q, want %q", got, "readme")
		}
	})

	t.Run("literal text is not escaped", func(t *testing.T) {
		p, err := compileRegex(types, Path(`/v[12]/status`))
		if err != nil {
			t.Fatalf("compileRegex: %v", err)
		}
		if _, ok := p.match("", "/v1/status"); !ok {
			t.Error("expected /v1/status to match")
		}
		if _, ok := p.match("", "/v2/status"); !ok {
			t.Error("expected /v2/status to match")
		}
		if _, ok := p.match("", "/v3/status"); ok {
			t.Error("/v3/status should not match")
		}
	})

	t.Run("unknown tag in group", func(t *testing.T) {
		_, err := compileRegex(types, Path(`/p/(?P<slug:id>[a-z]+)`))

		var uerr *UnknownTypeError
		if !errors.As(err, &uerr) {
			t.Fatalf("error = %v, want *UnknownTypeError", err)
		}
	})

	t.Run("invalid expression", func(t *testing.T) {
		_, err := compileRegex(types, Path(`/p/(?P<str:id>[a-z`))

		var merr *MalformedRouteError
		if !errors.As(err, &merr) {
			t.Fatalf("error = %v, want *MalformedRouteError", err)
		}
	})
}
