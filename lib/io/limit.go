package iolib

import (
	"io"

	"github.com/pkg/errors"
)

var ErrLimitExceeded = errors.New("read limit exceeded")

// LimitReader creates new [LimitedReader]
func LimitReader(r io.Reader, n uint) io.Reader { return &LimitedReader{r, n} }

// LimitedReader is like [io.LimitedReader], except that reading past
// the limit fails with [ErrLimitExceeded] instead of returning EOF.
type LimitedReader struct {
	R io.Reader // underlying reader
	N uint      // max bytes remaining
}

func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if l.N == 0 {
		return 0, ErrLimitExceeded
	}
	if uint(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= uint(n)
	return
}
