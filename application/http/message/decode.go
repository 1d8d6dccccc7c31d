package message

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/clbanning/mxj/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// bodyDecoders maps a media type to the decoder of ParsedBody.
var bodyDecoders = map[string]func(body []byte) (any, error){
	MediaTypeJSON:    decodeJSON,
	MediaTypeXML:     decodeXML,
	MediaTypeTextXML: decodeXML,
	MediaTypeForm:    decodeForm,
}

// decodeJSON accepts only an object or an array at the top level.
func decodeJSON(body []byte) (any, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Wrap(ErrBodyParse, "malformed json")
	}

	v := gjson.ParseBytes(body)
	if !v.IsObject() && !v.IsArray() {
		return nil, errors.Wrapf(ErrBodyParse, "json %s is neither an object nor an array", v.Type)
	}

	return v.Value(), nil
}

// decodeXML decodes into a map keyed by the root element.
// Entities are never fetched or expanded from outside the document.
func decodeXML(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	m, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, errors.Wrap(ErrBodyParse, err.Error())
	}

	return map[string]any(m), nil
}

// decodeForm decodes a query string. Bracketed keys nest: a[b]=1 yields
// {"a": {"b": "1"}} and k[]=1&k[]=2 yields {"k": ["1", "2"]}.
func decodeForm(body []byte) (any, error) {
	out := make(map[string]any)

	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errors.Wrap(ErrBodyParse, err.Error())
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, errors.Wrap(ErrBodyParse, err.Error())
		}

		base, path := splitFormKey(key)
		if base == "" {
			continue
		}
		out[base] = assignForm(out[base], path, value)
	}

	return out, nil
}

// splitFormKey splits "a[b][]" into "a" and ["b", ""].
// A key with unbalanced brackets is taken as a plain name.
func splitFormKey(key string) (string, []string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return key, nil
	}

	base, rest := key[:open], key[open:]
	path := make([]string, 0)
	for len(rest) > 0 {
		if rest[0] != '[' {
			return key, nil
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return key, nil
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}

	return base, path
}

// assignForm sets value at path inside container. An empty segment
// appends, and turns container into a list when its keys are 0..n-1.
// A named or out-of-range segment on a list turns it into a map.
func assignForm(container any, path []string, value string) any {
	if len(path) == 0 {
		return value
	}

	k := path[0]
	if k == "" {
		switch c := container.(type) {
		case []any:
			return append(c, assignForm(nil, path[1:], value))
		case map[string]any:
			if list, ok := formList(c); ok {
				return append(list, assignForm(nil, path[1:], value))
			}
			c[strconv.Itoa(nextFormIndex(c))] = assignForm(nil, path[1:], value)
			return c
		}
		return []any{assignForm(nil, path[1:], value)}
	}

	var m map[string]any
	switch c := container.(type) {
	case map[string]any:
		m = c
	case []any:
		if i, ok := formIndex(k); ok && i <= len(c) {
			if i == len(c) {
				c = append(c, nil)
			}
			c[i] = assignForm(c[i], path[1:], value)
			return c
		}
		m = make(map[string]any, len(c)+1)
		for i, v := range c {
			m[strconv.Itoa(i)] = v
		}
	default:
		m = make(map[string]any)
	}

	m[k] = assignForm(m[k], path[1:], value)
	return m
}

// formIndex parses a canonical non-negative index; "01" and "+1" are names.
func formIndex(k string) (int, bool) {
	i, err := strconv.Atoi(k)
	if err != nil || i < 0 || strconv.Itoa(i) != k {
		return 0, false
	}
	return i, true
}

// formList returns m as a list when its keys are exactly 0..len(m)-1.
func formList(m map[string]any) ([]any, bool) {
	list := make([]any, len(m))
	for k, v := range m {
		i, ok := formIndex(k)
		if !ok || i >= len(m) {
			return nil, false
		}
		list[i] = v
	}
	return list, true
}

func nextFormIndex(m map[string]any) int {
	next := 0
	for k := range m {
		if i, ok := formIndex(k); ok && i >= next {
			next = i + 1
		}
	}
	return next
}
