package aspyre

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is one inbound request as seen by the dispatch core: the routing
// inputs plus the raw payload. The transport layer builds it; the core never
// touches the socket.
type Request struct {
	Host    string
	Path    string
	Method  string
	Body    []byte
	Headers map[string]string
	Query   string
}

// Result is the reduced outcome of a dispatch: the encoded response body,
// the HTTP status code, the outbound headers accumulated by the chain, and
// the final context store.
type Result struct {
	Status  int
	Body    []byte
	Headers map[string]string
	State   *Store
}

// Aspyre dispatches requests to registered resources.
//
// Usage:
//  1. Create an instance with New
//  2. Register resources with AddRoute (or AddRouteRegex for raw patterns)
//  3. Dispatch requests with Dispatch
//
// An instance is safe for concurrent dispatch after configuration. Do not
// call AddRoute, AddRouteRegex, or RegisterType once Dispatch may run.
type Aspyre struct {
	codec  Codec
	types  *Types
	routes *registry
	log    *zap.Logger
	hooks  hooks
}

// hooks holds the configured observation callbacks.
type hooks struct {
	onDispatch []OnDispatchFunc
	onError    []OnErrorFunc
	onComplete []OnCompleteFunc
}

// OnDispatchFunc is called after route matching, just before the chain
// executes. Size is the number of entries in the resolved chain.
type OnDispatchFunc func(ctx context.Context, method Method, host, path string, size int)

// OnErrorFunc is called when a dispatch ends in an error: a halting domain
// error, a match failure, or an unclassified hook failure.
type OnErrorFunc func(ctx context.Context, method Method, path string, err error)

// OnCompleteFunc is called after the chain completes and the response is
// encoded.
type OnCompleteFunc func(ctx context.Context, method Method, path string, status int, duration time.Duration)

// Option configures an Aspyre instance.
type Option func(*Aspyre)

// WithLogger sets the structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Aspyre) {
		a.log = log
	}
}

// WithTypes sets the type registry used to convert URL arguments. The
// default registry carries the built-in tags.
func WithTypes(t *Types) Option {
	return func(a *Aspyre) {
		a.types = t
	}
}

// WithOnDispatch adds an observation hook called before each chain executes.
// Multiple hooks are called in order.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(a *Aspyre) {
		a.hooks.onDispatch = append(a.hooks.onDispatch, fn)
	}
}

// WithOnError adds an observation hook called when a dispatch fails.
// Multiple hooks are called in order.
func WithOnError(fn OnErrorFunc) Option {
	return func(a *Aspyre) {
		a.hooks.onError = append(a.hooks.onError, fn)
	}
}

// WithOnComplete adds an observation hook called after a dispatch produces a
// response. Multiple hooks are called in order.
func WithOnComplete(fn OnCompleteFunc) Option {
	return func(a *Aspyre) {
		a.hooks.onComplete = append(a.hooks.onComplete, fn)
	}
}

// New creates an instance bound to a codec. The codec is required; passing
// nil panics.
func New(codec Codec, opts ...Option) *Aspyre {
	if codec == nil {
		panic("aspyre: New requires a codec")
	}
	a := &Aspyre{
		codec: codec,
		types: NewTypes(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.routes = newRegistry(a.types)
	return a
}

// RegisterType adds or overrides a type tag before any route using it is
// registered.
func (a *Aspyre) RegisterType(tag string, fn ConvertFunc) {
	a.types.Register(tag, fn)
}

// AddRoute registers a resource under one or more templates, preserving
// input order. Templates use <type:name> placeholders in literal text; see
// Path and HostPath. A malformed template or unknown type tag fails the
// whole call and registers nothing for the failing template.
func (a *Aspyre) AddRoute(r *Resource, templates ...Template) error {
	if err := a.routes.add(r, false, templates...); err != nil {
		return err
	}
	a.log.Debug("routes registered", zap.Int("count", len(templates)))
	return nil
}

// AddRouteRegex registers a resource under raw regular-expression templates
// with explicit (?P<type:name>...) argument groups. Literal text is not
// escaped.
func (a *Aspyre) AddRouteRegex(r *Resource, templates ...Template) error {
	if err := a.routes.add(r, true, templates...); err != nil {
		return err
	}
	a.log.Debug("regex routes registered", zap.Int("count", len(templates)))
	return nil
}

// Dispatch matches the request, builds the handler chain for its method, and
// executes it against a fresh context store.
//
// Domain failures (unsupported method, no matching route, a conversion
// failure, or a hook error with Reraise set) are returned twice: encoded
// into the Result body with the error's status code, and as the error value
// for callers that inspect it with errors.As. Unclassified hook failures
// return a nil Result and the failure unmodified.
func (a *Aspyre) Dispatch(ctx context.Context, req Request) (*Result, error) {
	method := Method(strings.ToLower(req.Method))
	suppressBody := false
	if method == MethodHead {
		method = MethodGet
		suppressBody = true
	}
	if !httpMethods[method] {
		e := NotImplemented()
		e.Message = "The server does not support this HTTP method."
		return a.fail(ctx, method, req.Path, e)
	}

	matches, err := a.matches(req.Host, req.Path)
	if err != nil {
		return a.fail(ctx, method, req.Path, BadRequest().Wrap(err))
	}
	if len(matches) == 0 {
		e := NotFound()
		e.Message = "No matching handler for URL found."
		return a.fail(ctx, method, req.Path, e)
	}

	chain, err := resolveChain(method, matches)
	if err != nil {
		return a.fail(ctx, method, req.Path, NotImplemented().Wrap(err))
	}

	for _, fn := range a.hooks.onDispatch {
		fn(ctx, method, req.Host, req.Path, len(chain))
	}
	a.log.Debug("dispatching",
		zap.String("method", string(method)),
		zap.String("path", req.Path),
		zap.Int("handlers", len(matches)),
		zap.Int("chain", len(chain)),
	)

	body, err := a.codec.Decode(req.Body, req.Headers)
	if err != nil {
		var derr *Error
		if errors.As(err, &derr) {
			return a.fail(ctx, method, req.Path, derr)
		}
		return nil, err
	}

	state, err := a.newState(req)
	if err != nil {
		return a.fail(ctx, method, req.Path, BadRequest().Wrap(err))
	}

	start := time.Now()
	result, err := a.run(ctx, chain, state, body, suppressBody)
	if err != nil {
		var derr *Error
		if errors.As(err, &derr) {
			return a.fail(ctx, method, req.Path, derr)
		}
		for _, fn := range a.hooks.onError {
			fn(ctx, method, req.Path, err)
		}
		return nil, err
	}

	duration := time.Since(start)
	for _, fn := range a.hooks.onComplete {
		fn(ctx, method, req.Path, result.Status, duration)
	}
	a.log.Debug("dispatch complete",
		zap.String("method", string(method)),
		zap.String("path", req.Path),
		zap.Int("status", result.Status),
		zap.Duration("duration", duration),
	)
	return result, nil
}

// matches finds all routes matching the request, in registration order. One
// trailing slash on the incoming path is ignored, mirroring template
// normalization.
func (a *Aspyre) matches(host, path string) ([]Match, error) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return a.routes.find(host, path)
}

// newState builds the fresh per-request context store, seeded with the
// parsed query string under "arguments" and the inbound headers under
// "headers".
func (a *Aspyre) newState(req Request) (*Store, error) {
	state := NewStore()

	var args url.Values
	if req.Query != "" {
		parsed, err := url.ParseQuery(req.Query)
		if err != nil {
			return nil, err
		}
		args = parsed
	}
	if err := state.Set("arguments", args); err != nil {
		return nil, err
	}
	if err := state.Set("headers", req.Headers); err != nil {
		return nil, err
	}
	return state, nil
}

// run executes a resolved chain against the store. Stages run strictly in
// chain order; the store mutates in place across the whole chain. An integer
// hook result sets the status code. A domain error either halts the chain
// (Reraise) or is merged into the store under "error" and execution
// continues. Anything else halts and propagates as-is.
func (a *Aspyre) run(ctx context.Context, chain []chainEntry, state *Store, body any, suppressBody bool) (*Result, error) {
	response := a.codec.NewResponse()
	outHeaders := NewStore()

	for _, entry := range chain {
		inv := &Invocation{
			State:    state,
			Headers:  outHeaders,
			Body:     body,
			Response: response,
			Args:     entry.args,
		}

		value, err := entry.hook(ctx, inv)
		if err != nil {
			var derr *Error
			if !errors.As(err, &derr) {
				return nil, err
			}
			if derr.Reraise {
				a.log.Warn("chain halted",
					zap.Stringer("stage", entry.stage),
					zap.Int("status", derr.HTTPCode),
					zap.Error(derr),
				)
				return nil, derr
			}
			a.mergeError(state, derr)
			continue
		}
		if code, ok := value.(int); ok {
			state.Set("http_code", code)
		}
	}

	encoded, err := a.codec.Encode(response)
	if err != nil {
		return nil, err
	}
	if suppressBody {
		encoded = nil
	}
	return &Result{
		Status:  a.status(state),
		Body:    encoded,
		Headers: a.headerMap(outHeaders),
		State:   state,
	}, nil
}

// mergeError records a non-halting domain error into the store under the
// reserved "error" key and sets the status code. A later hook may inspect,
// replace, or clear the record.
func (a *Aspyre) mergeError(state *Store, derr *Error) {
	record := map[string]any{
		"code":    derr.Code(),
		"message": derr.Error(),
	}
	if derr.ShortName != "" {
		record["name"] = derr.ShortName
	}
	state.Set("error", record)
	state.Set("http_code", derr.HTTPCode)
}

// status reads the chain's final status code, defaulting to 200.
func (a *Aspyre) status(state *Store) int {
	if code, ok := state.Get("http_code").(int); ok {
		return code
	}
	return 200
}

// headerMap flattens the outbound header store, adding the codec's content
// type when it advertises one and no hook set it.
func (a *Aspyre) headerMap(outHeaders *Store) map[string]string {
	headers := make(map[string]string, outHeaders.Len()+1)
	for k, v := range outHeaders.Items() {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	if ct, ok := a.codec.(ContentTyper); ok && !outHeaders.Has("Content-Type") {
		headers["Content-Type"] = ct.ContentType()
	}
	return headers
}

// fail encodes a domain error as the response and returns it alongside the
// result so callers can branch on it.
func (a *Aspyre) fail(ctx context.Context, method Method, path string, derr *Error) (*Result, error) {
	for _, fn := range a.hooks.onError {
		fn(ctx, method, path, derr)
	}
	a.log.Warn("dispatch failed",
		zap.String("method", string(method)),
		zap.String("path", path),
		zap.Int("status", derr.HTTPCode),
		zap.Error(derr),
	)

	encoded, err := a.codec.Encode(derr)
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:  derr.HTTPCode,
		Body:    encoded,
		Headers: a.headerMap(NewStore()),
	}, derr
}
