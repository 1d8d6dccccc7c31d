package message

import "github.com/pkg/errors"

var (
	ErrInvalidMethod          = errors.New("invalid method")
	ErrInvalidRequestBody     = errors.New("invalid request body content")
	ErrBodyParse              = errors.New("error parsing response body")
	ErrUnsupportedContentType = errors.New("unsupported content type")
)
