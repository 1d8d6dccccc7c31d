package tcp

import (
	"time"

	"http-message/application/http"
	"http-message/application/http/transfer"
)

type Options struct {
	// DialTimeout bounds connecting, including the TLS handshake.
	// Zero means no limit beyond the context.
	DialTimeout time.Duration `validate:"gte=0"`

	// IOTimeout bounds writing the request and reading the response.
	IOTimeout time.Duration `validate:"gte=0"`

	// MaxResponseSize limits the bytes read from the connection.
	// Zero means no limit.
	MaxResponseSize int64 `validate:"gte=0"`

	InsecureSkipVerify bool

	Decode http.DecodeOptions

	// ExtraTransferDecoders adds codings besides chunked.
	ExtraTransferDecoders []transfer.Decoder
}

var DefaultOptions = Options{
	DialTimeout:     10 * time.Second,
	IOTimeout:       30 * time.Second,
	MaxResponseSize: 16 << 20,
	Decode: http.DecodeOptions{
		AllowSoleLF:         true,
		MaxFieldLineLength:  8192,
		MaxStatusLineLength: 8192,
	},
}
