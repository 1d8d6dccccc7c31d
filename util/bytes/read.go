package bytesutil

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

var ErrLineTooLong = errors.New("line length exceeds limit")

// ReadLine reads from br through the next LF and returns the line with its LF.
// A positive max bounds the line length, LF included, and is checked while
// reading, so an endless line stops at about max bytes.
// EOF before LF is reported as io.ErrUnexpectedEOF.
func ReadLine(br *bufio.Reader, max int) ([]byte, error) {
	var line []byte
	for {
		frag, err := br.ReadSlice('\n')
		line = append(line, frag...)

		if max > 0 && len(line) > max {
			return nil, ErrLineTooLong
		}

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}
