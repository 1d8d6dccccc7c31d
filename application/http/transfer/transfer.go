// Package transfer decodes HTTP/1.1 transfer codings.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7
package transfer

import (
	"bytes"
	"io"

	"http-message/application/http"

	"github.com/pkg/errors"
)

type Coding string

const CodingChunked Coding = "chunked"

// Decoder undoes one transfer coding.
type Decoder interface {
	Coding() Coding
	NewReader(r io.Reader) io.Reader
}

// ParseCodings splits a Transfer-Encoding field value into codings,
// in the order they were applied.
func ParseCodings(value []byte) []Coding {
	codings := make([]Coding, 0)
	for part := range bytes.SplitSeq(value, []byte{','}) {
		part = bytes.ToLower(bytes.TrimSpace(part))
		if len(part) > 0 {
			codings = append(codings, Coding(part))
		}
	}
	return codings
}

var ErrUnsupportedCoding = errors.New("coding is unsupported")

// Registry holds the decoders known to a receiver. Chunked is always there.
type Registry struct{ decoders map[Coding]Decoder }

func NewRegistry(extra []Decoder) *Registry {
	reg := &Registry{decoders: map[Coding]Decoder{CodingChunked: chunkedDecoder{}}}
	for _, d := range extra {
		reg.decoders[d.Coding()] = d
	}
	return reg
}

// Decode wraps r so that reading it undoes codings, last applied first.
// onTrailer receives the trailer section of a chunked body when it is not empty.
func (reg *Registry) Decode(r io.Reader, codings []Coding, onTrailer func(f []http.Field)) (io.Reader, error) {
	for i := len(codings) - 1; i >= 0; i-- {
		d, ok := reg.decoders[codings[i]]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedCoding, "%q", codings[i])
		}

		r = d.NewReader(r)
		if cr, ok := r.(*ChunkedReader); ok && onTrailer != nil {
			cr.OnTrailer(func(f []http.Field) {
				if len(f) > 0 {
					onTrailer(f)
				}
			})
		}
	}

	return r, nil
}
