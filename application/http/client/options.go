package client

import (
	"http-message/application/http"
)

type Options struct {
	// BaseURL is resolved against every request URI when set.
	BaseURL string `validate:"omitempty,url"`

	Receive ReceiveOptions
}

type ReceiveOptions struct {
	// Framing selects how raw responses are split.
	// The zero value is http.FramingPositional, which keeps only the last
	// line as the body. Responses from tcp.Transport end with the body
	// exactly as received, so a body ending in a newline reads as empty
	// under positional framing. Use http.FramingBlankLine with it.
	Framing http.Framing `validate:"lte=1"`
}
