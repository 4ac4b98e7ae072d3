package aspyre

import "context"

// SelectFunc chooses which instance of a Group handles a request, or nil
// when none qualifies.
type SelectFunc func(host, path string, instances []*Aspyre) *Aspyre

// FirstMatch selects the first instance, in registration order, with at
// least one matching route.
func FirstMatch(host, path string, instances []*Aspyre) *Aspyre {
	for _, inst := range instances {
		if matches, err := inst.matches(host, path); err == nil && len(matches) > 0 {
			return inst
		}
	}
	return nil
}

// BestMatch selects the instance with the most matching routes, preferring
// earlier registration on ties.
func BestMatch(host, path string, instances []*Aspyre) *Aspyre {
	var (
		best  *Aspyre
		count int
	)
	for _, inst := range instances {
		matches, err := inst.matches(host, path)
		if err != nil {
			continue
		}
		if len(matches) > count {
			best, count = inst, len(matches)
		}
	}
	return best
}

// Group dispatches across several independently configured instances,
// selecting one per request. Configure every instance and the group before
// concurrent dispatch begins.
type Group struct {
	codec     Codec
	selector  SelectFunc
	instances []*Aspyre
}

// NewGroup creates a group bound to a codec, used to encode the not-found
// response when no instance qualifies. A nil selector defaults to
// FirstMatch.
func NewGroup(codec Codec, selector SelectFunc) *Group {
	if codec == nil {
		panic("aspyre: NewGroup requires a codec")
	}
	if selector == nil {
		selector = FirstMatch
	}
	return &Group{codec: codec, selector: selector}
}

// AddInstance appends instances in selection order.
func (g *Group) AddInstance(instances ...*Aspyre) {
	g.instances = append(g.instances, instances...)
}

// Dispatch selects an instance for the request and delegates to it. When no
// instance has a matching route, it returns an encoded 404-class error.
func (g *Group) Dispatch(ctx context.Context, req Request) (*Result, error) {
	inst := g.selector(req.Host, req.Path, g.instances)
	if inst == nil {
		e := NotFound()
		e.Message = "No matching handler for URL found."
		encoded, err := g.codec.Encode(e)
		if err != nil {
			return nil, err
		}
		return &Result{Status: e.HTTPCode, Body: encoded}, e
	}
	return inst.Dispatch(ctx, req)
}
