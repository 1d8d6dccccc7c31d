package message

import (
	"slices"
	"strings"
)

// Headers is an ordered multimap of header fields.
// Names are kept as supplied and compared case-sensitively.
// The zero value is an empty set ready to use.
type Headers struct {
	names  []string
	values map[string][]string
}

// Set replaces all values of name with value.
func (h *Headers) Set(name, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	h.values[name] = []string{value}
}

// Add appends value to name, creating it if absent.
func (h *Headers) Add(name, value string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[name]; !ok {
		h.names = append(h.names, name)
	}
	h.values[name] = append(h.values[name], value)
}

func (h *Headers) Del(name string) {
	if _, ok := h.values[name]; !ok {
		return
	}
	delete(h.values, name)
	h.names = slices.DeleteFunc(h.names, func(n string) bool { return n == name })
}

func (h Headers) Has(name string) bool {
	_, ok := h.values[name]
	return ok
}

// Get returns the first value of name, or "".
func (h Headers) Get(name string) string {
	if v := h.values[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns a copy of the values of name.
func (h Headers) Values(name string) []string {
	return slices.Clone(h.values[name])
}

// Line returns the values of name joined by ", ".
func (h Headers) Line(name string) string {
	return strings.Join(h.values[name], ", ")
}

// Lookup finds name exactly, then falls back to a case-insensitive match.
func (h Headers) Lookup(name string) ([]string, bool) {
	if v, ok := h.values[name]; ok {
		return slices.Clone(v), true
	}
	for _, n := range h.names {
		if strings.EqualFold(n, name) {
			return slices.Clone(h.values[n]), true
		}
	}
	return nil, false
}

// Names returns header names in insertion order.
func (h Headers) Names() []string {
	return slices.Clone(h.names)
}

func (h Headers) Len() int { return len(h.names) }

// Lines flattens the headers into "Name: value" lines, one per value.
func (h Headers) Lines() []string {
	lines := make([]string, 0, len(h.names))
	for _, name := range h.names {
		for _, v := range h.values[name] {
			lines = append(lines, name+": "+v)
		}
	}
	return lines
}

// Map returns the headers as a plain map.
func (h Headers) Map() map[string][]string {
	m := make(map[string][]string, len(h.names))
	for _, name := range h.names {
		m[name] = slices.Clone(h.values[name])
	}
	return m
}

// Clone returns a deep copy of h.
func (h Headers) Clone() Headers {
	if h.values == nil {
		return Headers{}
	}
	out := Headers{
		names:  slices.Clone(h.names),
		values: make(map[string][]string, len(h.values)),
	}
	for k, v := range h.values {
		out.values[k] = slices.Clone(v)
	}
	return out
}
