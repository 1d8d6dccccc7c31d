package bytesutil

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		max      int
		expected string
		wantErr  error
	}{
		{desc: "crlf kept", input: "GET\r\nrest", expected: "GET\r\n"},
		{desc: "sole lf", input: "a\nb\n", expected: "a\n"},
		{desc: "exactly max", input: "abc\n", max: 4, expected: "abc\n"},
		{desc: "over max", input: "abcd\n", max: 4, wantErr: ErrLineTooLong},
		{desc: "no lf", input: "abc", wantErr: io.ErrUnexpectedEOF},
		{desc: "empty input", input: "", wantErr: io.ErrUnexpectedEOF},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			line, err := ReadLine(bufio.NewReader(strings.NewReader(tc.input)), tc.max)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(line))
		})
	}
}

func TestReadLineLongerThanBuffer(t *testing.T) {
	long := strings.Repeat("x", 100)

	// 16 is the smallest bufio buffer, so the line spans several fills.
	br := bufio.NewReaderSize(strings.NewReader(long+"\nnext\n"), 16)

	line, err := ReadLine(br, 0)
	require.NoError(t, err)
	assert.Equal(t, long+"\n", string(line))

	line, err = ReadLine(br, 0)
	require.NoError(t, err)
	assert.Equal(t, "next\n", string(line))
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestReadLineStopsAtMax(t *testing.T) {
	cr := &countingReader{r: strings.NewReader(strings.Repeat("x", 1<<16))}
	br := bufio.NewReaderSize(cr, 16)

	_, err := ReadLine(br, 64)
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.LessOrEqual(t, cr.n, 64+16)
}
