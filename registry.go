package aspyre

// route is one registered (pattern, resource) entry. Its position in the
// registry's slice is the registration index, the tie-break for every
// ordering that must be deterministic.
type route struct {
	pattern  *CompiledPattern
	resource *Resource
}

// registry is the insertion-ordered route collection. All additions must
// complete before concurrent dispatch begins; the registry is effectively
// immutable during the serving phase.
type registry struct {
	types  *Types
	routes []route
}

func newRegistry(types *Types) *registry {
	return &registry{types: types}
}

// add compiles one template per entry and appends a route for each,
// preserving input order. A compile failure registers nothing for the
// failing template.
func (g *registry) add(r *Resource, advanced bool, templates ...Template) error {
	for _, tpl := range templates {
		var (
			p   *CompiledPattern
			err error
		)
		if advanced {
			p, err = compileRegex(g.types, tpl)
		} else {
			p, err = compile(g.types, tpl)
		}
		if err != nil {
			return err
		}
		g.routes = append(g.routes, route{pattern: p, resource: r})
	}
	return nil
}

// find returns one Match per route whose pattern matches, in registration
// order, with raw captures converted through the type registry. A resource
// matching via more than one of its routes appears once, at its first match.
// Conversion failures surface immediately; they are not deferred to
// execution.
func (g *registry) find(host, path string) ([]Match, error) {
	var (
		matches []Match
		seen    map[*Resource]bool
	)

	for _, rt := range g.routes {
		caps, ok := rt.pattern.match(host, path)
		if !ok {
			continue
		}
		if seen[rt.resource] {
			continue
		}

		args := make(Args, len(caps))
		for _, c := range caps {
			v, err := g.types.Convert(c.Tag, c.Name, c.raw)
			if err != nil {
				return nil, err
			}
			args[c.Name] = v
		}

		if seen == nil {
			seen = make(map[*Resource]bool)
		}
		seen[rt.resource] = true
		matches = append(matches, Match{Resource: rt.resource, Args: args})
	}
	return matches, nil
}
