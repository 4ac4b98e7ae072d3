package aspyre

import "fmt"

// statusText maps HTTP status codes to their standard status lines.
// This is the full set of codes the framework knows how to name; an Error
// with a code outside this table falls back to the 500 line.
var statusText = map[int]string{
	// Informational
	100: "100 Continue",
	101: "101 Switching Protocols",
	// Successful
	200: "200 OK",
	201: "201 Created",
	202: "202 Accepted",
	203: "203 Non-Authoritative Information",
	204: "204 No Content",
	205: "205 Reset Content",
	206: "206 Partial Content",
	// Redirection
	300: "300 Multiple Choices",
	301: "301 Moved Permanently",
	302: "302 Found",
	303: "303 See Other",
	304: "304 Not Modified",
	305: "305 Use Proxy",
	307: "307 Temporary Redirect",
	// Client error
	400: "400 Bad Request",
	401: "401 Unauthorized",
	402: "402 Payment Required",
	403: "403 Forbidden",
	404: "404 Not Found",
	405: "405 Method Not Allowed",
	406: "406 Not Acceptable",
	407: "407 Proxy Authentication Required",
	408: "408 Request Timeout",
	409: "409 Conflict",
	410: "410 Gone",
	411: "411 Length Required",
	412: "412 Precondition Failed",
	413: "413 Request Entity Too Large",
	414: "414 Request-URI Too Long",
	415: "415 Unsupported Media Type",
	416: "416 Range Not Satisfiable",
	417: "417 Expectation Failed",
	418: "418 I'm a teapot",
	// Server error
	500: "500 Internal Server Error",
	501: "501 Not Implemented",
	502: "502 Bad Gateway",
	503: "503 Service Unavailable",
	504: "504 Gateway Timeout",
	505: "505 HTTP Version Not Supported",
	// Easter egg
	555: "555 Running Aspyre",
}

// StatusText returns the status line for an HTTP code, falling back to the
// 500 line for unknown codes.
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return statusText[500]
}

// Error is a structured, recoverable failure carrying HTTP status intent.
//
// Hooks return an *Error to signal a domain failure. Reraise controls what
// the pipeline does with it:
//
//   - Reraise true: the chain halts immediately and the encoded error becomes
//     the response.
//   - Reraise false: the error is merged into the context under the "error"
//     key, the status code is set from HTTPCode, and the chain continues.
//     Later hooks may inspect, replace, or clear the recorded error.
//
// ErrorCode is an application-level code; when zero, the wire shape falls
// back to HTTPCode.
type Error struct {
	HTTPCode  int
	ErrorCode int
	Message   string
	ShortName string
	Reraise   bool

	cause error
}

// NewError creates an Error for the given HTTP status code. The error halts
// the chain unless Reraise is cleared.
func NewError(httpCode int) *Error {
	return &Error{HTTPCode: httpCode, Reraise: true}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return StatusText(e.HTTPCode)
}

// Wrap records the underlying cause, reachable through errors.As/Is, and
// adopts its text as the message when none is set. It returns e.
func (e *Error) Wrap(err error) *Error {
	e.cause = err
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the status line for the error's HTTP code.
func (e *Error) Status() string {
	return StatusText(e.HTTPCode)
}

// Code returns the code reported on the wire: ErrorCode when set, otherwise
// the HTTP code.
func (e *Error) Code() int {
	if e.ErrorCode != 0 {
		return e.ErrorCode
	}
	return e.HTTPCode
}

// payload is the wire shape for an encoded Error.
type payload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Name    string `json:"error,omitempty"`
}

func (e *Error) payload() payload {
	msg := e.Message
	if msg == "" {
		msg = "An error has occurred."
	}
	return payload{Code: e.Code(), Message: msg, Name: e.ShortName}
}

// Named constructors for the standard error variants. Each returns a fresh
// Error so callers may set Message, ErrorCode, or clear Reraise.
func BadRequest() *Error          { return NewError(400) }
func Unauthorized() *Error        { return NewError(401) }
func PaymentRequired() *Error     { return NewError(402) }
func Forbidden() *Error           { return NewError(403) }
func NotFound() *Error            { return NewError(404) }
func MethodNotAllowed() *Error    { return NewError(405) }
func NotAcceptable() *Error       { return NewError(406) }
func RequestTimeout() *Error      { return NewError(408) }
func Conflict() *Error            { return NewError(409) }
func Gone() *Error                { return NewError(410) }
func PreconditionFailed() *Error  { return NewError(412) }
func UnsupportedMedia() *Error    { return NewError(415) }
func InternalServerError() *Error { return NewError(500) }
func NotImplemented() *Error      { return NewError(501) }
func BadGateway() *Error          { return NewError(502) }
func ServiceUnavailable() *Error  { return NewError(503) }
func GatewayTimeout() *Error      { return NewError(504) }

// MalformedRouteError is returned at registration time when a template
// cannot be compiled.
type MalformedRouteError struct {
	Template string
	Reason   string
}

func (e *MalformedRouteError) Error() string {
	return fmt.Sprintf("malformed route %q: %s", e.Template, e.Reason)
}

// UnknownTypeError is returned at registration time when a template
// references a type tag absent from the registry.
type UnknownTypeError struct {
	Tag string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type tag %q", e.Tag)
}

// ConversionError is returned at match time when a captured argument cannot
// be converted by its declared type tag.
type ConversionError struct {
	Tag string
	Arg string
	Raw string
	err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert argument %q: %q is not a valid %s: %v", e.Arg, e.Raw, e.Tag, e.err)
}

func (e *ConversionError) Unwrap() error { return e.err }
