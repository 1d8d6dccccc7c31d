package message

import "github.com/pkg/errors"

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// ParseMethod accepts exactly GET, POST, PUT and DELETE.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.IsSupported() {
		return "", errors.Wrapf(ErrInvalidMethod, "%q", s)
	}
	return m, nil
}

func (m Method) IsSupported() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

func (m Method) String() string { return string(m) }
