// Package aspyre is the dispatch core of a micro web-routing framework.
//
// It matches an incoming request (host, path, method) against a registry of
// typed URL templates, assembles an ordered hook-invocation chain, executes
// the chain against a shared versioned context store, and reduces the
// outcome (including typed domain errors) into an encodable result.
// Transport-level HTTP handling and process bootstrap are deliberately left
// to the caller.
//
// # Quick Start
//
// Define a resource with the hooks it supports:
//
//	products := &aspyre.Resource{
//	    Get: aspyre.MethodHooks{
//	        Handle: func(ctx context.Context, inv *aspyre.Invocation) (any, error) {
//	            id := inv.Args["product_id"].(int)
//	            inv.Response.(map[string]any)["id"] = id
//	            return 200, nil
//	        },
//	    },
//	}
//
// Create an instance, register routes, and dispatch:
//
//	app := aspyre.New(aspyre.JSONCodec{})
//	app.AddRoute(products, aspyre.Path("/products/<int:product_id>"))
//
//	result, err := app.Dispatch(ctx, aspyre.Request{
//	    Path:   "/products/1234",
//	    Method: "get",
//	})
//
// # Templates and Typed Arguments
//
// Templates embed <type:name> placeholders in literal text. The type tag
// names a conversion function in the instance's type registry; the capture
// is converted at match time, so a handler never sees raw text:
//
//	aspyre.Path("/users/<uuid:user_id>/orders/<int:order>")
//	aspyre.HostPath("<str:tenant>.example.com", "/dashboard")
//
// Built-in tags cover str, strl, stru, int, float, date, timestamp, uuid,
// and base64. Register custom tags before registering routes that use them:
//
//	app.RegisterType("hex", func(raw string) (any, error) {
//	    return strconv.ParseInt(raw, 16, 64)
//	})
//
// For full control, AddRouteRegex accepts raw regular expressions with
// explicit (?P<type:name>pattern) argument groups.
//
// # Hook Chain
//
// For each request every matching resource contributes its hooks to a chain
// of five fixed stages:
//
//	before -> before_<method> -> <method> -> after_<method> -> after
//
// The before stages and the method stage run in registration order; both
// after stages run in reverse order, so the first resource to set up is the
// last to tear down. Head requests run the get chain with the response body
// suppressed.
//
// # Context Store
//
// One Store threads through the whole chain. Keys are matched by their
// lowercase letters only, so "Content-Type" and "contenttype" name the same
// slot. Save records an immutable snapshot; Rollback restores one:
//
//	version := inv.State.Save()
//	// ... speculative mutation ...
//	inv.State.Rollback(version - 1)
//
// ReadOnly returns a view over the same data that rejects mutation.
//
// # Domain Errors
//
// A hook signals a domain failure by returning an *Error. With Reraise set
// (the default for the named constructors) the chain halts and the encoded
// error becomes the response. With Reraise cleared the error is recorded in
// the context under "error" and execution continues, letting a later hook
// inspect, replace, or clear it:
//
//	e := aspyre.Forbidden()
//	e.Message = "account suspended"
//	e.Reraise = false
//	return nil, e
//
// Any other error halts the chain and propagates to the caller unmodified.
//
// # Multiple Instances
//
// A Group dispatches across several independently configured instances,
// selecting one per request by FirstMatch or BestMatch policy:
//
//	group := aspyre.NewGroup(aspyre.JSONCodec{}, aspyre.BestMatch)
//	group.AddInstance(apiV1, apiV2)
//
// # Concurrency
//
// Configure first, then dispatch: AddRoute, AddRouteRegex, and RegisterType
// must not run concurrently with Dispatch. After configuration an instance
// is safe for concurrent use; every request gets a fresh Store and the route
// registry is never mutated during serving.
package aspyre
