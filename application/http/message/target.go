package message

import "http-message/application/util/uri"

// RequestTarget is the transport-agnostic description of one request.
// The zero value has no URI, no method, no headers and no body.
type RequestTarget struct {
	uri       uri.URI
	method    Method
	headers   Headers
	body      Body
	basicAuth string
}

func (t RequestTarget) URI() uri.URI      { return t.uri }
func (t RequestTarget) Method() Method    { return t.method }
func (t RequestTarget) Body() Body        { return t.body }
func (t RequestTarget) BasicAuth() string { return t.basicAuth }

// Headers returns a copy of the headers.
func (t RequestTarget) Headers() Headers { return t.headers.Clone() }

func (t RequestTarget) WithURI(u uri.URI) RequestTarget {
	t.uri = u
	return t
}

// WithMethod does not validate m, dispatch does.
func (t RequestTarget) WithMethod(m Method) RequestTarget {
	t.method = m
	return t
}

func (t RequestTarget) WithHeaders(h Headers) RequestTarget {
	t.headers = h.Clone()
	return t
}

func (t RequestTarget) WithBody(b Body) RequestTarget {
	t.body = b
	return t
}

// WithBasicAuth stores "user[:password]". An empty user clears it.
func (t RequestTarget) WithBasicAuth(user, password string) RequestTarget {
	switch {
	case user == "":
		t.basicAuth = ""
	case password == "":
		t.basicAuth = user
	default:
		t.basicAuth = user + ":" + password
	}
	return t
}
