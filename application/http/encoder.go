package http

import (
	"bytes"
	"io"
	"strconv"

	"http-message/application/util/rule"

	"github.com/pkg/errors"
)

var (
	ErrInvalidFieldName  = errors.New("field name is not a valid token")
	ErrInvalidFieldValue = errors.New("field value contains CR or LF")
)

// WriteRequest writes req to w. Fields are checked before anything is
// written, so a rejected request leaves w untouched. A nil Body writes no body.
func WriteRequest(w io.Writer, req Request) error {
	line := make([]byte, 0, len(req.Method)+len(req.Target)+10)
	line = append(line, req.Method...)
	line = append(line, rule.SP)
	line = append(line, req.Target...)
	line = append(line, rule.SP)
	line = append(line, req.Version.Text()...)

	return writeMessage(w, line, req.Headers, req.Body)
}

// WriteResponse writes res to w, with the same checks as WriteRequest.
// The SP before the reason phrase is written even when the phrase is empty.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
func WriteResponse(w io.Writer, res Response) error {
	line := res.Version.Text()
	line = append(line, rule.SP)
	line = strconv.AppendInt(line, int64(res.StatusCode), 10)
	line = append(line, rule.SP)
	line = append(line, res.ReasonPhrase...)

	return writeMessage(w, line, res.Headers, res.Body)
}

func writeMessage(w io.Writer, startLine []byte, fields []Field, body io.Reader) error {
	if err := checkFields(fields); err != nil {
		return err
	}

	head := bytes.NewBuffer(nil)
	head.Write(startLine)
	head.Write(rule.CRLF)
	for _, f := range fields {
		head.Write(f.Text())
		head.Write(rule.CRLF)
	}
	head.Write(rule.CRLF)

	if _, err := head.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing head")
	}

	if body == nil {
		return nil
	}

	if _, err := io.Copy(w, body); err != nil {
		return errors.Wrap(err, "writing body")
	}

	return nil
}

// checkFields rejects names that are not tokens and values that would
// start a new line.
func checkFields(fields []Field) error {
	for _, f := range fields {
		if !rule.IsValidToken(string(f.Name)) {
			return errors.Wrapf(ErrInvalidFieldName, "%q", f.Name)
		}
		if bytes.ContainsAny(f.Value, string(rule.CRLF)) {
			return errors.Wrapf(ErrInvalidFieldValue, "field %q", f.Name)
		}
	}
	return nil
}
