package aspyre

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is a host/path pair of route templates. Path templates must begin
// with a forward slash. Host is optional; when set, the incoming host must
// match it in full. Use Path and HostPath to construct one.
type Template struct {
	Host string
	Path string
}

// Path returns a path-only template.
func Path(path string) Template { return Template{Path: path} }

// HostPath returns a template matching both the host and path portions of an
// incoming URL.
func HostPath(host, path string) Template { return Template{Host: host, Path: path} }

func (t Template) String() string {
	if t.Host == "" {
		return t.Path
	}
	return t.Host + t.Path
}

// ArgDesc describes one capture site of a compiled pattern: the argument
// name and the type tag used to convert its raw text. The tag is carried
// here, structurally, never inside the matcher's capture-group names.
type ArgDesc struct {
	Name string
	Tag  string
}

// CompiledPattern matches a (host, path) pair and yields the raw text
// captured at each argument site. Patterns are immutable once compiled.
type CompiledPattern struct {
	host     *regexp.Regexp
	path     *regexp.Regexp
	hostArgs []ArgDesc
	pathArgs []ArgDesc
}

// Args returns the pattern's argument descriptors in capture order, host
// sites first.
func (p *CompiledPattern) Args() []ArgDesc {
	args := make([]ArgDesc, 0, len(p.hostArgs)+len(p.pathArgs))
	args = append(args, p.hostArgs...)
	return append(args, p.pathArgs...)
}

// capture is one matched argument site: its descriptor plus the raw text it
// extracted.
type capture struct {
	ArgDesc
	raw string
}

// match tests the pattern against a host and path. Both portions present in
// the pattern must match in full. On success it returns the raw captures in
// argument order.
func (p *CompiledPattern) match(host, path string) ([]capture, bool) {
	var caps []capture

	if p.host != nil {
		m := p.host.FindStringSubmatch(host)
		if m == nil {
			return nil, false
		}
		for _, a := range p.hostArgs {
			caps = append(caps, capture{ArgDesc: a, raw: m[p.host.SubexpIndex(a.Name)]})
		}
	}
	if p.path != nil {
		m := p.path.FindStringSubmatch(strings.TrimPrefix(path, "/"))
		if m == nil {
			return nil, false
		}
		for _, a := range p.pathArgs {
			caps = append(caps, capture{ArgDesc: a, raw: m[p.path.SubexpIndex(a.Name)]})
		}
	}
	return caps, true
}

// placeholderRx finds <type:name> sites in a simple template.
var placeholderRx = regexp.MustCompile(`<([^<>]*)>`)

// groupRx finds the header of an explicit-group site, (?P<type:name> or
// (?P<name>, in an advanced template.
var groupRx = regexp.MustCompile(`\(\?P<([^>]+)>`)

// nameRx validates argument names and type tags; names double as regexp
// group names so they are restricted to word characters.
var nameRx = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// compile turns a template into a CompiledPattern, validating every type tag
// against the registry. The path template must begin with "/"; the leading
// slash (and at most one trailing slash) is stripped before compilation.
func compile(types *Types, tpl Template) (*CompiledPattern, error) {
	if tpl.Host == "" && tpl.Path == "" {
		return nil, &MalformedRouteError{Template: tpl.String(), Reason: "template has neither host nor path"}
	}

	p := &CompiledPattern{}
	seen := make(map[string]bool)

	if tpl.Host != "" {
		rx, args, err := compilePortion(types, tpl, tpl.Host, `[^/]+`, seen)
		if err != nil {
			return nil, err
		}
		p.host, p.hostArgs = rx, args
	}
	if tpl.Path != "" {
		path := tpl.Path
		if !strings.HasPrefix(path, "/") {
			return nil, &MalformedRouteError{Template: tpl.String(), Reason: "path must begin with a forward slash"}
		}
		path = strings.TrimPrefix(path, "/")
		path = strings.TrimSuffix(path, "/")
		rx, args, err := compilePortion(types, tpl, path, `[^/]+`, seen)
		if err != nil {
			return nil, err
		}
		p.path, p.pathArgs = rx, args
	}
	return p, nil
}

// compilePortion compiles one portion (host or path) of a simple template:
// literal text is matched exactly, each <type:name> placeholder becomes a
// named capture matching capturePat.
func compilePortion(types *Types, tpl Template, portion, capturePat string, seen map[string]bool) (*regexp.Regexp, []ArgDesc, error) {
	var (
		b    strings.Builder
		args []ArgDesc
		last int
	)
	b.WriteString(`\A`)

	for _, loc := range placeholderRx.FindAllStringSubmatchIndex(portion, -1) {
		b.WriteString(regexp.QuoteMeta(portion[last:loc[0]]))

		tag, name, err := splitPlaceholder(tpl, portion[loc[2]:loc[3]])
		if err != nil {
			return nil, nil, err
		}
		if !types.Has(tag) {
			return nil, nil, &UnknownTypeError{Tag: tag}
		}
		if seen[name] {
			return nil, nil, &MalformedRouteError{Template: tpl.String(), Reason: fmt.Sprintf("duplicate argument name %q", name)}
		}
		seen[name] = true

		fmt.Fprintf(&b, `(?P<%s>%s)`, name, capturePat)
		args = append(args, ArgDesc{Name: name, Tag: tag})
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(portion[last:]))
	b.WriteString(`\z`)

	rx, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, &MalformedRouteError{Template: tpl.String(), Reason: err.Error()}
	}
	return rx, args, nil
}

// splitPlaceholder parses the interior of a <type:name> site.
func splitPlaceholder(tpl Template, inner string) (tag, name string, err error) {
	tag, name, ok := strings.Cut(inner, ":")
	if !ok || !nameRx.MatchString(tag) || !nameRx.MatchString(name) {
		return "", "", &MalformedRouteError{
			Template: tpl.String(),
			Reason:   fmt.Sprintf("placeholder %q is not of the form <type:name>", "<"+inner+">"),
		}
	}
	return tag, name, nil
}

// compileRegex compiles an advanced template whose portions are raw regular
// expressions with explicit argument groups. A group written (?P<type:name>x)
// declares a typed argument; a plain named group (?P<name>x) defaults to the
// str tag. Literal text is NOT escaped.
func compileRegex(types *Types, tpl Template) (*CompiledPattern, error) {
	if tpl.Host == "" && tpl.Path == "" {
		return nil, &MalformedRouteError{Template: tpl.String(), Reason: "template has neither host nor path"}
	}

	p := &CompiledPattern{}
	seen := make(map[string]bool)

	if tpl.Host != "" {
		rx, args, err := compileRegexPortion(types, tpl, tpl.Host, seen)
		if err != nil {
			return nil, err
		}
		p.host, p.hostArgs = rx, args
	}
	if tpl.Path != "" {
		path := tpl.Path
		if !strings.HasPrefix(path, "/") {
			return nil, &MalformedRouteError{Template: tpl.String(), Reason: "path must begin with a forward slash"}
		}
		rx, args, err := compileRegexPortion(types, tpl, strings.TrimPrefix(path, "/"), seen)
		if err != nil {
			return nil, err
		}
		p.path, p.pathArgs = rx, args
	}
	return p, nil
}

// compileRegexPortion rewrites each explicit group header to a plain named
// group and records its descriptor. The rest of the expression passes
// through untouched.
func compileRegexPortion(types *Types, tpl Template, portion string, seen map[string]bool) (*regexp.Regexp, []ArgDesc, error) {
	var (
		b    strings.Builder
		args []ArgDesc
		last int
	)
	b.WriteString(`\A(?:`)

	for _, loc := range groupRx.FindAllStringSubmatchIndex(portion, -1) {
		b.WriteString(portion[last:loc[0]])

		inner := portion[loc[2]:loc[3]]
		tag, name, ok := strings.Cut(inner, ":")
		if !ok {
			// Plain named group: the name is the argument, type defaults
			// to str.
			tag, name = "str", inner
		}
		if !nameRx.MatchString(tag) || !nameRx.MatchString(name) {
			return nil, nil, &MalformedRouteError{
				Template: tpl.String(),
				Reason:   fmt.Sprintf("group %q is not of the form (?P<type:name>...)", inner),
			}
		}
		if !types.Has(tag) {
			return nil, nil, &UnknownTypeError{Tag: tag}
		}
		if seen[name] {
			return nil, nil, &MalformedRouteError{Template: tpl.String(), Reason: fmt.Sprintf("duplicate argument name %q", name)}
		}
		seen[name] = true

		fmt.Fprintf(&b, `(?P<%s>`, name)
		args = append(args, ArgDesc{Name: name, Tag: tag})
		last = loc[1]
	}
	b.WriteString(portion[last:])
	b.WriteString(`)\z`)

	rx, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, &MalformedRouteError{Template: tpl.String(), Reason: err.Error()}
	}
	return rx, args, nil
}
