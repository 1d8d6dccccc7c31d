package http

import (
	"bytes"
	"io"

	"http-message/application/util/rule"

	"github.com/pkg/errors"
)

// Framing selects how ParseRaw finds the boundary between headers and body.
type Framing uint8

const (
	// FramingPositional treats the last line as the body and every line
	// between the first and the last as a header candidate.
	// Multi-line bodies lose all but their last line.
	FramingPositional Framing = iota
	// FramingBlankLine ends the header section at the first empty line
	// and keeps the rest of the input as the body, untouched.
	FramingBlankLine
)

func (f Framing) String() string {
	switch f {
	case FramingPositional:
		return "positional"
	case FramingBlankLine:
		return "blank-line"
	}
	return "unknown"
}

// RawResponse is the result of splitting a buffered response.
type RawResponse struct {
	// Version is the first token of the status line, unvalidated.
	Version string
	Fields  []Field
	Body    []byte
}

// ParseRaw splits a buffered raw response into version, fields and body.
// Status code and reason phrase are not read from the status line.
func ParseRaw(raw []byte, framing Framing) (RawResponse, error) {
	switch framing {
	case FramingPositional:
		return parsePositional(raw), nil
	case FramingBlankLine:
		return parseBlankLine(raw)
	}
	return RawResponse{}, errors.Errorf("unknown framing: %d", framing)
}

func firstToken(line []byte) string {
	line = bytes.TrimSpace(line)
	if i := bytes.IndexByte(line, rule.SP); i >= 0 {
		line = line[:i]
	}
	return string(bytes.TrimSpace(line))
}

func parsePositional(raw []byte) RawResponse {
	lines := bytes.Split(raw, []byte{rule.LF})

	out := RawResponse{Version: firstToken(lines[0])}
	if len(lines) < 2 {
		return out
	}

	last := len(lines) - 1
	out.Body = bytes.TrimSpace(lines[last])

	sep := []byte(": ")
	for _, line := range lines[1:last] {
		name, value, found := bytes.Cut(line, sep)
		if !found {
			continue
		}

		field := Field{Name: name, Value: bytes.TrimSpace(value)}

		replaced := false
		for i := range out.Fields {
			if bytes.Equal(out.Fields[i].Name, name) {
				// Last one wins, first position is kept.
				out.Fields[i] = field
				replaced = true
				break
			}
		}
		if !replaced {
			out.Fields = append(out.Fields, field)
		}
	}

	return out
}

var ErrMissingHeaderTerminator = errors.New("empty line after headers not found")

func parseBlankLine(raw []byte) (RawResponse, error) {
	head := newHeadReader(bytes.NewReader(raw), DecodeOptions{AllowSoleLF: true})

	statusLine, err := head.line(0)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// Status line only.
			return RawResponse{Version: firstToken(raw)}, nil
		}
		return RawResponse{}, errors.Wrap(err, "reading status line")
	}

	out := RawResponse{Version: firstToken(statusLine)}

	fields, err := head.fields()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return RawResponse{}, ErrMissingHeaderTerminator
		}
		return RawResponse{}, errors.Wrap(err, "decoding headers")
	}
	out.Fields = fields

	body, err := io.ReadAll(head.br)
	if err != nil {
		return RawResponse{}, errors.Wrap(err, "reading body")
	}
	out.Body = body

	return out, nil
}
