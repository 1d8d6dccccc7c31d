package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/json", MediaType("application/json; charset=utf-8"))
	assert.Equal(t, "text/plain", MediaType(" text/plain "))
	assert.Equal(t, "", MediaType(""))
}

func TestEncodeBody(t *testing.T) {
	structured, err := StructuredBody(map[string]any{
		"a": 1,
		"b": []any{"x", "y"},
		"c": map[string]any{"d": true, "e": nil},
	})
	require.NoError(t, err)

	testcases := []struct {
		desc      string
		body      Body
		mediaType string
		expected  string
	}{
		{
			desc:      "raw body is never converted",
			body:      StringBody("a=b"),
			mediaType: MediaTypeJSON,
			expected:  "a=b",
		},
		{
			desc:      "json",
			body:      structured,
			mediaType: MediaTypeJSON,
			expected:  `{"a":1,"b":["x","y"],"c":{"d":true,"e":null}}`,
		},
		{
			desc:      "text json",
			body:      structured,
			mediaType: MediaTypeTextJSON,
			expected:  `{"a":1,"b":["x","y"],"c":{"d":true,"e":null}}`,
		},
		{
			desc:      "form",
			body:      structured,
			mediaType: MediaTypeForm,
			expected:  "a=1&b%5B0%5D=x&b%5B1%5D=y&c%5Bd%5D=1",
		},
		{
			desc:      "no encoder sends stored serialization",
			body:      structured,
			mediaType: "text/plain",
			expected:  `{"a":1,"b":["x","y"],"c":{"d":true,"e":null}}`,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			b, err := EncodeBody(tc.body, tc.mediaType)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, string(b))
		})
	}
}

func TestHasEncoder(t *testing.T) {
	assert.True(t, HasEncoder(MediaTypeJSON))
	assert.True(t, HasEncoder(MediaTypeForm))
	assert.False(t, HasEncoder(MediaTypeXML))
}
