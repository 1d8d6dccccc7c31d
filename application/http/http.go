package http

import (
	"bytes"
	"io"
	"strconv"

	"http-message/application/util/rule"
	sliceutil "http-message/lib/slice"

	"github.com/pkg/errors"
)

type RequestLine struct {
	Method  string
	Target  string
	Version Version
}

// Request is an HTTP/1.x request as it appears on the wire.
type Request struct {
	RequestLine
	Headers []Field

	Body io.Reader
}

type StatusLine struct {
	Version      Version
	StatusCode   int
	ReasonPhrase string
}

// Response is an HTTP/1.x response as it appears on the wire.
type Response struct {
	StatusLine
	Headers []Field
	Body    io.Reader
}

// Version is [major, minor].
type Version [2]uint

var Version11 = Version{1, 1}

// ParseVersion parses "HTTP/x.y". Both numbers are single digits.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.3
func ParseVersion(b []byte) (Version, error) {
	rest, ok := bytes.CutPrefix(b, []byte("HTTP/"))
	if !ok || len(rest) != 3 || rest[1] != '.' ||
		!rule.IsDigit(rune(rest[0])) || !rule.IsDigit(rune(rest[2])) {
		return Version{}, errors.Errorf("malformed http version: %q", b)
	}

	return Version{uint(rest[0] - '0'), uint(rest[2] - '0')}, nil
}

func (ver Version) Text() []byte {
	b := append([]byte(nil), "HTTP/"...)
	b = strconv.AppendUint(b, uint64(ver[0]), 10)
	b = append(b, '.')
	return strconv.AppendUint(b, uint64(ver[1]), 10)
}

func (ver Version) String() string { return string(ver.Text()) }

// Field is one header or trailer field line.
type Field struct{ Name, Value []byte }

func NewField(name, value string) Field {
	return Field{Name: []byte(name), Value: []byte(value)}
}

// ParseField splits "name: value". The value loses surrounding OWS,
// the name must end right at the colon.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1
func ParseField(line []byte) (Field, error) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("no colon in field line %q", line)
	}
	if len(name) > 0 && bytes.IndexByte(rule.OWS, name[len(name)-1]) >= 0 {
		return Field{}, errors.Errorf("whitespace before colon in field line %q", line)
	}

	return Field{Name: name, Value: bytes.Trim(value, string(rule.OWS))}, nil
}

// Text returns "name: value".
func (f *Field) Text() []byte {
	b := make([]byte, 0, len(f.Name)+len(f.Value)+2)
	b = append(b, f.Name...)
	b = append(b, ':', ' ')
	return append(b, f.Value...)
}

// LookupField returns the value of the first field named name.
// Field names are compared case-insensitively.
func LookupField(fields []Field, name string) ([]byte, bool) {
	for _, f := range fields {
		if bytes.EqualFold(f.Name, []byte(name)) {
			return f.Value, true
		}
	}
	return nil, false
}

// DropField returns fields without those named name.
func DropField(fields []Field, name string) []Field {
	return sliceutil.Filter(fields, func(f Field) bool {
		return !bytes.EqualFold(f.Name, []byte(name))
	})
}
