package message

import (
	"http-message/application/http/status"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const DefaultProtocolVersion = "HTTP/1.1"

// Response is a received message. With* methods return copies.
type Response struct {
	statusCode      int
	reasonPhrase    string
	protocolVersion string
	headers         Headers
	body            Body

	parsed *parsedBody
}

type parsedBody struct {
	mediaType string
	value     any
}

// NewResponse returns a response whose reason phrase comes from the
// status table.
func NewResponse(code int) *Response {
	return &Response{
		statusCode:      code,
		reasonPhrase:    status.ReasonPhrase(code),
		protocolVersion: DefaultProtocolVersion,
	}
}

func (r *Response) StatusCode() int               { return r.statusCode }
func (r *Response) ReasonPhrase() string          { return r.reasonPhrase }
func (r *Response) ProtocolVersion() string       { return r.protocolVersion }
func (r *Response) Body() Body                    { return r.body }
func (r *Response) HasHeader(name string) bool    { return r.headers.Has(name) }
func (r *Response) Header(name string) []string   { return r.headers.Values(name) }
func (r *Response) HeaderLine(name string) string { return r.headers.Line(name) }

// Headers returns a copy of the headers.
func (r *Response) Headers() Headers { return r.headers.Clone() }

func (r *Response) clone() *Response {
	out := *r
	out.headers = r.headers.Clone()
	out.parsed = nil
	return &out
}

// WithStatus sets code and reason. An empty reason is taken from the
// status table.
func (r *Response) WithStatus(code int, reason string) *Response {
	out := r.clone()
	out.statusCode = code
	if reason == "" {
		reason = status.ReasonPhrase(code)
	}
	out.reasonPhrase = reason
	return out
}

func (r *Response) WithProtocolVersion(version string) *Response {
	out := r.clone()
	out.protocolVersion = version
	return out
}

func (r *Response) WithHeader(name, value string) *Response {
	out := r.clone()
	out.headers.Set(name, value)
	return out
}

func (r *Response) WithAddedHeader(name, value string) *Response {
	out := r.clone()
	out.headers.Add(name, value)
	return out
}

func (r *Response) WithoutHeader(name string) *Response {
	out := r.clone()
	out.headers.Del(name)
	return out
}

func (r *Response) WithBody(b Body) *Response {
	out := r.clone()
	out.body = b
	return out
}

// ContentType returns the media type declared by the Content-Type header.
func (r *Response) ContentType() string {
	v, ok := r.headers.Lookup("Content-Type")
	if !ok || len(v) == 0 {
		return ""
	}
	return MediaType(v[0])
}

// ParsedBody decodes the body according to its Content-Type.
// The first successful result is kept and returned by later calls
// while the content type stays the same.
func (r *Response) ParsedBody() (any, error) {
	mt := r.ContentType()
	if r.parsed != nil && r.parsed.mediaType == mt {
		return r.parsed.value, nil
	}

	decode, ok := bodyDecoders[mt]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedContentType, "%q", mt)
	}

	v, err := decode(r.body.content)
	if err != nil {
		return nil, err
	}

	r.parsed = &parsedBody{mediaType: mt, value: v}
	return v, nil
}

// Lookup queries a JSON body with a gjson path, e.g. "items.#.id".
func (r *Response) Lookup(path string) (gjson.Result, error) {
	switch mt := r.ContentType(); mt {
	case MediaTypeJSON, MediaTypeTextJSON:
	default:
		return gjson.Result{}, errors.Wrapf(ErrUnsupportedContentType, "%q", mt)
	}

	if !gjson.ValidBytes(r.body.content) {
		return gjson.Result{}, errors.Wrap(ErrBodyParse, "malformed json")
	}

	return gjson.GetBytes(r.body.content, path), nil
}

func (r *Response) IsSuccess() bool     { return r.statusCode >= 200 && r.statusCode < 300 }
func (r *Response) IsRedirect() bool    { return r.statusCode >= 300 && r.statusCode < 400 }
func (r *Response) IsClientError() bool { return r.statusCode >= 400 && r.statusCode < 500 }
func (r *Response) IsServerError() bool { return r.statusCode >= 500 && r.statusCode < 600 }
