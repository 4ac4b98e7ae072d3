package aspyre

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// Codec converts between raw payload bytes and the language-native values
// the handler chain operates on. The dispatch core only depends on these
// three operations.
type Codec interface {
	// Encode converts the accumulated response value, or an *Error, into the
	// bytes returned to the transport.
	Encode(v any) ([]byte, error)

	// Decode converts inbound payload bytes into the value handed to hooks
	// as Invocation.Body. Headers are the inbound request headers.
	Decode(data []byte, headers map[string]string) (any, error)

	// NewResponse returns a fresh, empty, mutable response value for hooks
	// to fill in.
	NewResponse() any
}

// ContentTyper is an optional interface a codec implements to advertise the
// media type of its encoded output. When present, dispatch sets the
// Content-Type response header from it unless a hook already has.
type ContentTyper interface {
	ContentType() string
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONCodec encodes and decodes JSON payloads. The zero value is ready to
// use. In strict mode, inbound payloads must declare an application/json
// content type.
type JSONCodec struct {
	Strict bool
}

// ContentType implements ContentTyper.
func (JSONCodec) ContentType() string { return "application/json" }

// NewResponse returns an empty JSON object for hooks to populate.
func (JSONCodec) NewResponse() any { return map[string]any{} }

// Encode marshals the response value. An *Error is marshalled into the wire
// shape {code, message, error?}.
func (JSONCodec) Encode(v any) ([]byte, error) {
	if e, ok := v.(*Error); ok {
		return json.Marshal(e.payload())
	}
	return json.Marshal(v)
}

// Decode unmarshals inbound JSON. Invalid JSON fails with a 400-class
// *Error, as does a missing or non-JSON content type in strict mode. An
// empty payload decodes to nil.
func (c JSONCodec) Decode(data []byte, headers map[string]string) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if c.Strict && !strings.Contains(strings.ToLower(headerValue(headers, "Content-Type")), "application/json") {
		e := BadRequest()
		e.Message = "Missing or invalid Content-Type provided."
		return nil, e
	}
	if !gjson.ValidBytes(data) {
		e := BadRequest()
		e.Message = "Request payload is not valid JSON."
		return nil, e
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, BadRequest().Wrap(err)
	}
	return v, nil
}

// headerValue finds a header by case-insensitive name.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
