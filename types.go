package aspyre

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConvertFunc converts the raw text captured by a placeholder into a typed
// value. It is looked up by type tag in a Types registry.
type ConvertFunc func(raw string) (any, error)

// Types maps type tags to conversion functions for typed URL arguments.
//
// A registry starts with the built-in tags (str, strl, stru, int, float,
// date, timestamp, uuid, base64). Register adds or overrides a tag. The
// registry must be fully populated before routes using its tags are
// registered; it is read-only during dispatch.
type Types struct {
	converters map[string]ConvertFunc
}

// NewTypes creates a registry pre-seeded with the built-in tags.
func NewTypes() *Types {
	t := &Types{converters: make(map[string]ConvertFunc, len(defaultTypes))}
	for tag, fn := range defaultTypes {
		t.converters[tag] = fn
	}
	return t
}

// Register adds or overrides a conversion function for a tag.
func (t *Types) Register(tag string, fn ConvertFunc) {
	t.converters[tag] = fn
}

// Has reports whether a tag is known to the registry.
func (t *Types) Has(tag string) bool {
	_, ok := t.converters[tag]
	return ok
}

// Convert applies the tag's conversion function to raw captured text. The
// argument name is carried into the error for diagnostics.
func (t *Types) Convert(tag, arg, raw string) (any, error) {
	fn, ok := t.converters[tag]
	if !ok {
		return nil, &UnknownTypeError{Tag: tag}
	}
	v, err := fn(raw)
	if err != nil {
		return nil, &ConversionError{Tag: tag, Arg: arg, Raw: raw, err: err}
	}
	return v, nil
}

// dateLayout is the wire format for the date tag.
const dateLayout = "2006-01-02"

var defaultTypes = map[string]ConvertFunc{
	"str": func(raw string) (any, error) {
		return raw, nil
	},
	"strl": func(raw string) (any, error) {
		return strings.ToLower(raw), nil
	},
	"stru": func(raw string) (any, error) {
		return strings.ToUpper(raw), nil
	},
	"int": func(raw string) (any, error) {
		return strconv.Atoi(raw)
	},
	"float": func(raw string) (any, error) {
		return strconv.ParseFloat(raw, 64)
	},
	"date": func(raw string) (any, error) {
		return time.Parse(dateLayout, raw)
	},
	"timestamp": func(raw string) (any, error) {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return time.Unix(secs, 0).UTC(), nil
	},
	"uuid": func(raw string) (any, error) {
		return uuid.Parse(raw)
	},
	"base64": func(raw string) (any, error) {
		b, err := base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	},
}
