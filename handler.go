package aspyre

import "context"

// Method is an HTTP method in the fixed supported set.
type Method string

// Supported methods. Head is accepted at the dispatch boundary and treated
// as Get with the response body suppressed; it never appears in a chain.
const (
	MethodGet    Method = "get"
	MethodPost   Method = "post"
	MethodPut    Method = "put"
	MethodPatch  Method = "patch"
	MethodDelete Method = "delete"
	MethodHead   Method = "head"
)

// httpMethods is the set a chain can be resolved for.
var httpMethods = map[Method]bool{
	MethodGet:    true,
	MethodPost:   true,
	MethodPut:    true,
	MethodPatch:  true,
	MethodDelete: true,
}

// Args holds a matched route's URL arguments, already converted to their
// declared types.
type Args map[string]any

// Invocation carries the shared per-request state into a hook. The same
// State, Headers, and Response values thread through every hook of one
// chain; Args differ per handler.
type Invocation struct {
	// State is the request's context store. Hooks mutate it in place; there
	// is no copy between stages.
	State *Store

	// Headers is the outbound header record accumulated across the chain.
	Headers *Store

	// Body is the decoded request payload, as produced by the codec.
	Body any

	// Response is the mutable response value created by the codec's
	// NewResponse. Hooks fill it in; the codec encodes it after the chain
	// completes.
	Response any

	// Args holds the typed URL arguments captured for this handler's route.
	Args Args
}

// HookFunc is one hook of a handler chain. Hooks are the pipeline's only
// suspension points and may perform I/O under ctx.
//
// A returned int value is recorded as the context's HTTP status code. A
// returned *Error is handled per its Reraise flag. Any other error aborts
// the chain and propagates to the caller unmodified.
type HookFunc func(ctx context.Context, inv *Invocation) (any, error)

// MethodHooks are the hooks a resource exposes for one HTTP method: a
// method-scoped before hook, the primary handler, and a method-scoped after
// hook. Any field may be nil.
type MethodHooks struct {
	Before HookFunc
	Handle HookFunc
	After  HookFunc
}

// Resource is a handler's capability record: the full set of hooks it
// exposes, populated once at registration. Resolution is plain field access;
// nothing is discovered at dispatch time.
//
// A resource with no hooks for the requested method contributes nothing to
// the method-specific stages but still contributes its global Before and
// After hooks.
type Resource struct {
	// Before runs in the global-before stage of every chain the resource
	// participates in, regardless of method.
	Before HookFunc

	// After runs in the global-after stage, in reverse match order.
	After HookFunc

	Get    MethodHooks
	Post   MethodHooks
	Put    MethodHooks
	Patch  MethodHooks
	Delete MethodHooks
}

// method returns the resource's hooks for m. Callers must pass a method in
// the supported set.
func (r *Resource) method(m Method) MethodHooks {
	switch m {
	case MethodGet:
		return r.Get
	case MethodPost:
		return r.Post
	case MethodPut:
		return r.Put
	case MethodPatch:
		return r.Patch
	case MethodDelete:
		return r.Delete
	}
	return MethodHooks{}
}

// Match pairs a matched resource with its typed URL arguments. The route
// registry produces one Match per matching route, deduplicated by resource.
type Match struct {
	Resource *Resource
	Args     Args
}
