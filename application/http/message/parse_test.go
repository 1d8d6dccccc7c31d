package message

import (
	"testing"

	"http-message/application/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	raw := []byte("HTTP/1.1 200 OK\nContent-Type: application/json\n{\"a\":1}")

	res, err := ParseResponse(200, raw, http.FramingPositional)
	require.NoError(t, err)

	assert.Equal(t, 200, res.StatusCode())
	assert.Equal(t, "OK", res.ReasonPhrase())
	assert.Equal(t, "HTTP/1.1", res.ProtocolVersion())
	assert.Equal(t, "application/json", res.HeaderLine("Content-Type"))
	assert.Equal(t, `{"a":1}`, res.Body().String())

	v, err := res.ParsedBody()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)
}

func TestParseResponseFraming(t *testing.T) {
	raw := []byte("HTTP/1.0 201 Created\r\nX-A: 1\r\nX-A: 2\r\n\r\nline1\nline2")

	testcases := []struct {
		desc     string
		framing  http.Framing
		expected string
		header   string
	}{
		{desc: "positional", framing: http.FramingPositional, expected: "line2", header: "2"},
		{desc: "blank line", framing: http.FramingBlankLine, expected: "line1\nline2", header: "2"},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			res, err := ParseResponse(201, raw, tc.framing)
			require.NoError(t, err)

			assert.Equal(t, "HTTP/1.0", res.ProtocolVersion())
			assert.Equal(t, "Created", res.ReasonPhrase())
			assert.Equal(t, tc.expected, res.Body().String())
			assert.Equal(t, tc.header, res.HeaderLine("X-A"))
		})
	}
}

func TestParseResponseEmptyVersion(t *testing.T) {
	res, err := ParseResponse(200, []byte(""), http.FramingPositional)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", res.ProtocolVersion())
	assert.True(t, res.Body().IsEmpty())
}
