package message

import (
	"http-message/application/http"
	"http-message/application/http/status"

	"github.com/pkg/errors"
)

// ParseResponse builds a Response from a buffered raw response.
// statusCode is the one reported by the transport, the status line is
// only read for the protocol version.
func ParseResponse(statusCode int, raw []byte, framing http.Framing) (*Response, error) {
	parsed, err := http.ParseRaw(raw, framing)
	if err != nil {
		return nil, errors.Wrap(err, "parsing raw response")
	}

	res := &Response{
		statusCode:      statusCode,
		reasonPhrase:    status.ReasonPhrase(statusCode),
		protocolVersion: parsed.Version,
		body:            NewBody(parsed.Body),
	}
	if res.protocolVersion == "" {
		res.protocolVersion = DefaultProtocolVersion
	}

	for _, f := range parsed.Fields {
		// Last value wins.
		res.headers.Set(string(f.Name), string(f.Value))
	}

	return res, nil
}
