package message

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultContentType = "text/plain; charset=utf-8"

	MediaTypeJSON     = "application/json"
	MediaTypeTextJSON = "text/json"
	MediaTypeForm     = "application/x-www-form-urlencoded"
	MediaTypeXML      = "application/xml"
	MediaTypeTextXML  = "text/xml"
)

// MediaType returns the part of a Content-Type value before the first ';',
// trimmed.
func MediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mt)
}

var bodyEncoders = map[string]func(structured []byte) ([]byte, error){
	MediaTypeJSON:     encodeJSON,
	MediaTypeTextJSON: encodeJSON,
	MediaTypeForm:     encodeForm,
}

// HasEncoder reports whether structured bodies are converted for mediaType.
func HasEncoder(mediaType string) bool {
	_, ok := bodyEncoders[mediaType]
	return ok
}

// EncodeBody returns the bytes to send for body under mediaType.
// Raw bodies are returned unchanged. Structured bodies are converted when
// an encoder exists for mediaType and are sent as stored otherwise.
func EncodeBody(body Body, mediaType string) ([]byte, error) {
	if !body.structured {
		return body.Contents(), nil
	}

	encode, ok := bodyEncoders[mediaType]
	if !ok {
		return body.Contents(), nil
	}

	b, err := encode(body.content)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequestBody, err.Error())
	}
	return b, nil
}

func encodeJSON(structured []byte) ([]byte, error) {
	return bytes.Clone(structured), nil
}

// encodeForm builds a query string the way nested form fields are
// usually written: a[b]=1&a[c][0]=2. Keys are sorted, true/false become
// 1/0 and null members are left out.
func encodeForm(structured []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(structured))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decoding structured body")
	}

	values := url.Values{}
	flattenForm("", v, values)

	return []byte(values.Encode()), nil
}

func flattenForm(prefix string, v any, values url.Values) {
	key := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "[" + k + "]"
	}

	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenForm(key(k), v[k], values)
		}
	case []any:
		for i, elem := range v {
			flattenForm(key(strconv.Itoa(i)), elem, values)
		}
	case nil:
	case bool:
		if v {
			values.Add(prefix, "1")
		} else {
			values.Add(prefix, "0")
		}
	case json.Number:
		values.Add(prefix, v.String())
	case string:
		values.Add(prefix, v)
	}
}
