package message

import (
	"context"

	"http-message/application/util/uri"

	"github.com/pkg/errors"
)

// Dispatcher performs the exchange described by a RequestTarget.
type Dispatcher interface {
	Dispatch(ctx context.Context, target RequestTarget) (*Response, error)
}

// Request wraps a RequestTarget with PSR-7 style accessors.
type Request struct {
	target RequestTarget
}

type RequestOption func(t *RequestTarget)

// Header adds value to the header name.
func Header(name, value string) RequestOption {
	return func(t *RequestTarget) {
		t.headers.Add(name, value)
	}
}

func Auth(user, password string) RequestOption {
	return func(t *RequestTarget) {
		*t = t.WithBasicAuth(user, password)
	}
}

// NewRequest builds a request. method must be GET, POST, PUT or DELETE.
func NewRequest(method, rawURL string, body Body, opts ...RequestOption) (Request, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return Request{}, err
	}

	u, err := uri.Parse(rawURL)
	if err != nil {
		return Request{}, errors.Wrap(err, "parsing url")
	}

	t := RequestTarget{method: m, uri: u, body: body}
	for _, opt := range opts {
		opt(&t)
	}

	return Request{target: t}, nil
}

func Get(rawURL string, opts ...RequestOption) (Request, error) {
	return NewRequest(string(MethodGet), rawURL, Body{}, opts...)
}

func Post(rawURL string, body Body, opts ...RequestOption) (Request, error) {
	return NewRequest(string(MethodPost), rawURL, body, opts...)
}

func Put(rawURL string, body Body, opts ...RequestOption) (Request, error) {
	return NewRequest(string(MethodPut), rawURL, body, opts...)
}

func Delete(rawURL string, body Body, opts ...RequestOption) (Request, error) {
	return NewRequest(string(MethodDelete), rawURL, body, opts...)
}

func (r Request) Method() Method { return r.target.method }

func (r Request) WithMethod(method string) (Request, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return Request{}, err
	}
	r.target = r.target.WithMethod(m)
	return r, nil
}

func (r Request) URI() uri.URI { return r.target.uri }

func (r Request) WithURI(u uri.URI) Request {
	r.target = r.target.WithURI(u)
	return r
}

func (r Request) Target() RequestTarget { return r.target }

func (r Request) WithTarget(t RequestTarget) Request {
	r.target = t.WithHeaders(t.headers)
	return r
}

// Headers returns a copy of the headers.
func (r Request) Headers() Headers { return r.target.Headers() }

func (r Request) HasHeader(name string) bool { return r.target.headers.Has(name) }

func (r Request) Header(name string) []string { return r.target.headers.Values(name) }

func (r Request) HeaderLine(name string) string { return r.target.headers.Line(name) }

// WithHeader replaces every value of name with value.
func (r Request) WithHeader(name, value string) Request {
	h := r.target.Headers()
	h.Set(name, value)
	r.target.headers = h
	return r
}

// WithAddedHeader appends value to name.
func (r Request) WithAddedHeader(name, value string) Request {
	h := r.target.Headers()
	h.Add(name, value)
	r.target.headers = h
	return r
}

func (r Request) WithoutHeader(name string) Request {
	h := r.target.Headers()
	h.Del(name)
	r.target.headers = h
	return r
}

func (r Request) Body() Body { return r.target.body }

func (r Request) WithBody(b Body) Request {
	r.target = r.target.WithBody(b)
	return r
}

func (r Request) BasicAuth() string { return r.target.basicAuth }

func (r Request) WithBasicAuth(user, password string) Request {
	r.target = r.target.WithBasicAuth(user, password)
	return r
}

// Execute hands the target to d and returns its response.
func (r Request) Execute(ctx context.Context, d Dispatcher) (*Response, error) {
	return d.Dispatch(ctx, r.target)
}
