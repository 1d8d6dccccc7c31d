package uri

import (
	"strings"

	"http-message/application/util/rule"
)

// charset marks the bytes escape copies unchanged.
type charset [256]bool

// newCharset holds the unreserved bytes plus extra.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func newCharset(extra string) *charset {
	var cs charset
	for c := range len(cs) {
		r := rune(c)
		cs[c] = rule.IsAlpha(r) || rule.IsDigit(r) || strings.ContainsRune("-._~", r)
	}
	for i := range len(extra) {
		cs[extra[i]] = true
	}
	return &cs
}

var (
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
	pathChars = newCharset("!$&'()*+,;=:@/")
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.4
	queryChars = newCharset("!$&'()*+,;=:@/?")
)

const upperHex = "0123456789ABCDEF"

// escape percent-encodes every byte of s outside allowed.
// Well-formed percent-encoded triplets are copied as they are.
func escape(s string, allowed *charset) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && isPercentEncoded(s[i:]):
			b.WriteString(s[i : i+3])
			i += 2
		case allowed[c]:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0xF])
		}
	}

	return b.String()
}

// isPercentEncoded reports whether s starts with "%" HEXDIG HEXDIG.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func isPercentEncoded(s string) bool {
	return len(s) >= 3 && s[0] == '%' && rule.IsHex(rune(s[1])) && rule.IsHex(rune(s[2]))
}

func containsCTL(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == 0x7f })
}

// isValidScheme checks ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ).
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func isValidScheme(s string) bool {
	if s == "" || !rule.IsAlpha(rune(s[0])) {
		return false
	}
	return !strings.ContainsFunc(s[1:], func(r rune) bool {
		return !rule.IsAlpha(r) && !rule.IsDigit(r) && r != '+' && r != '-' && r != '.'
	})
}
