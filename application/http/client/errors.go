package client

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrUnsupportedMethod = errors.New("unsupported method")

type TransportCode uint8

const (
	CodeUnknown TransportCode = iota
	CodeDNSFailure
	CodeConnectFailure
	CodeWriteFailure
	CodeReadFailure
	CodeConnectionClosed
	CodeTimeout
	CodeProtocol
	CodeEmptyResponse
	CodeCanceled
)

func (c TransportCode) String() string {
	switch c {
	case CodeDNSFailure:
		return "dns failure"
	case CodeConnectFailure:
		return "connect failure"
	case CodeWriteFailure:
		return "write failure"
	case CodeReadFailure:
		return "read failure"
	case CodeConnectionClosed:
		return "connection closed"
	case CodeTimeout:
		return "timeout"
	case CodeProtocol:
		return "protocol error"
	case CodeEmptyResponse:
		return "empty response"
	case CodeCanceled:
		return "canceled"
	}
	return "unknown"
}

// TransportError reports a failed exchange.
type TransportError struct {
	Code    TransportCode
	Message string
	Err     error
}

func NewTransportError(code TransportCode, err error) *TransportError {
	te := &TransportError{Code: code, Err: err}
	if err != nil {
		te.Message = err.Error()
	}
	return te
}

func (e *TransportError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transport: %s", e.Code)
	}
	return fmt.Sprintf("transport: %s: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// asTransportError returns the TransportError inside err,
// or wraps err into one with code.
func asTransportError(err error, code TransportCode) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return NewTransportError(code, err)
}
