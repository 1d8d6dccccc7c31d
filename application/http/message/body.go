package message

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
)

// Body holds message content, either raw bytes or a structured value.
// A structured value is stored as its JSON serialization.
type Body struct {
	content    []byte
	structured bool
}

// NewBody returns a raw body holding a copy of b.
func NewBody(b []byte) Body {
	return Body{content: bytes.Clone(b)}
}

func StringBody(s string) Body {
	return Body{content: []byte(s)}
}

// StructuredBody wraps a mapping or list value.
// Anything else, or a value that does not serialize,
// fails with ErrInvalidRequestBody.
func StructuredBody(v any) (Body, error) {
	if !isStructured(v) {
		return Body{}, errors.Wrapf(ErrInvalidRequestBody, "%T is neither a mapping nor a list", v)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return Body{}, errors.Wrap(ErrInvalidRequestBody, err.Error())
	}

	return Body{content: b, structured: true}, nil
}

func isStructured(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

// Write replaces the content with p, which becomes raw, and returns len(p).
func (b *Body) Write(p []byte) int {
	b.content = bytes.Clone(p)
	b.structured = false
	return len(p)
}

// Contents returns a copy of the stored bytes.
func (b Body) Contents() []byte { return bytes.Clone(b.content) }

func (b Body) String() string { return string(b.content) }

// OriginalContents reverses the serialization of a structured body.
// Raw bodies, and content that fails to decode, are returned as a string.
func (b Body) OriginalContents() any {
	if !b.structured {
		return string(b.content)
	}

	var v any
	if err := json.Unmarshal(b.content, &v); err != nil {
		return string(b.content)
	}
	return v
}

// Size reports the byte length, or false when the body is empty.
func (b Body) Size() (int, bool) {
	if len(b.content) == 0 {
		return 0, false
	}
	return len(b.content), true
}

func (b Body) IsStructured() bool { return b.structured }

// IsEmpty reports whether there is nothing to send.
func (b Body) IsEmpty() bool { return len(b.content) == 0 }
