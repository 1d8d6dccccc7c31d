package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"http-message/application/util/rule"
	bytesutil "http-message/util/bytes"

	"github.com/pkg/errors"
)

// DecodeOptions tunes how strictly a response head is read.
type DecodeOptions struct {
	// AllowSoleLF accepts a bare LF as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// LenientWhitespace turns every whitespace byte into SP and trims the line.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-3
	LenientWhitespace bool

	// MaxFieldLineLength and MaxStatusLineLength bound a single line,
	// terminator included. Zero means no limit.
	MaxFieldLineLength  int `validate:"gte=0"`
	MaxStatusLineLength int `validate:"gte=0"`
}

var (
	ErrMissingCRBeforeLF   = errors.New("missing CR before LF")
	ErrFieldLineTooLong    = errors.New("field line length exceeds limit")
	ErrMalformedFieldLine  = errors.New("field line is malformed")
	ErrStatusLineTooLong   = errors.New("status line length exceeds limit")
	ErrMalformedStatusLine = errors.New("status line is malformed")
)

// headReader reads the lines of a message head.
type headReader struct {
	br   *bufio.Reader
	opts DecodeOptions
}

func newHeadReader(r io.Reader, opts DecodeOptions) *headReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &headReader{br: br, opts: opts}
}

// line returns the next line without its terminator.
func (h *headReader) line(max int) ([]byte, error) {
	b, err := bytesutil.ReadLine(h.br, max)
	if err != nil {
		return nil, err
	}

	b = b[:len(b)-1]
	if n := len(b); n > 0 && b[n-1] == rule.CR {
		b = b[:n-1]
	} else if !h.opts.AllowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	if !h.opts.LenientWhitespace {
		// A bare CR inside a line reads as SP.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
		return bytes.ReplaceAll(b, []byte{rule.CR}, []byte{rule.SP}), nil
	}

	for i, c := range b {
		if rule.IsWhitespace(rune(c)) {
			b[i] = rule.SP
		}
	}
	return bytes.Trim(b, " "), nil
}

// fields reads field lines up to and including the empty line.
func (h *headReader) fields() ([]Field, error) {
	fields := make([]Field, 0)
	for {
		line, err := h.line(h.opts.MaxFieldLineLength)
		switch {
		case errors.Is(err, bytesutil.ErrLineTooLong):
			return nil, ErrFieldLineTooLong
		case err != nil:
			return nil, errors.Wrap(err, "reading field line")
		case len(line) == 0:
			return fields, nil
		}

		field, err := ParseField(line)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedFieldLine, err.Error())
		}
		fields = append(fields, field)
	}
}

func (h *headReader) statusLine() (StatusLine, error) {
	for {
		line, err := h.line(h.opts.MaxStatusLineLength)
		if errors.Is(err, bytesutil.ErrLineTooLong) {
			return StatusLine{}, ErrStatusLineTooLong
		}
		if err != nil {
			return StatusLine{}, errors.Wrap(err, "reading status line")
		}

		// Empty lines may precede the status line.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(line) == 0 {
			continue
		}

		sl, err := parseStatusLine(line)
		if err != nil {
			return StatusLine{}, errors.Wrap(ErrMalformedStatusLine, err.Error())
		}
		return sl, nil
	}
}

// parseStatusLine accepts "HTTP/x.y NNN[ reason]".
// The reason phrase and the SP before it may be missing.
func parseStatusLine(line []byte) (StatusLine, error) {
	version, rest, _ := bytes.Cut(line, []byte{rule.SP})

	ver, err := ParseVersion(version)
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	code, reason, _ := bytes.Cut(rest, []byte{rule.SP})
	if len(code) != 3 || bytes.ContainsFunc(code, func(r rune) bool { return !rule.IsDigit(r) }) {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", code)
	}
	n, _ := strconv.Atoi(string(code))

	return StatusLine{Version: ver, StatusCode: n, ReasonPhrase: string(reason)}, nil
}

// ResponseDecoder reads the head of an HTTP/1.x response.
type ResponseDecoder struct{ head *headReader }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{head: newHeadReader(r, opts)}
}

// Decode fills r with the status line and header section.
// r.Body is left at the first byte of the message body.
func (rd *ResponseDecoder) Decode(r *Response) error {
	sl, err := rd.head.statusLine()
	if err != nil {
		return errors.Wrap(err, "decoding status line")
	}

	fields, err := rd.head.fields()
	if err != nil {
		return errors.Wrap(err, "decoding fields")
	}

	r.StatusLine, r.Headers, r.Body = sl, fields, rd.head.br
	return nil
}
