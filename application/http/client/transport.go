package client

import (
	"context"

	"http-message/application/http/message"
	"http-message/application/util/uri"
)

// Params is everything a transport needs to send one request.
type Params struct {
	Method message.Method
	URI    uri.URI
	// Headers are "Name: value" lines, one per value.
	Headers []string
	Body    []byte
	HasBody bool
	// BasicAuth is "user[:password]", empty for none.
	BasicAuth string
}

// Result is what a transport received.
type Result struct {
	StatusCode int
	// Raw is the whole response: status line, header lines and body.
	Raw []byte
}

// Session is a single exchange. Close is called on every exit path.
type Session interface {
	Send(ctx context.Context, params Params) (Result, error)
	Close() error
}

type Transport interface {
	Open(ctx context.Context) (Session, error)
}
