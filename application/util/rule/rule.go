package rule

import "strings"

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	VT   byte = 0x0B
	FF   byte = 0x0C
)

var (
	OWS         = []byte{SP, HTAB}
	CRLF        = []byte{CR, LF}
	Whitespaces = []byte{SP, HTAB, VT, FF, CR}
)

func IsWhitespace(r rune) bool {
	for _, ws := range Whitespaces {
		if r == rune(ws) {
			return true
		}
	}
	return false
}

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }
func IsHex(r rune) bool {
	return IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// IsTchar reports whether c may appear in a token.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsTchar(c rune) bool {
	return IsAlpha(c) || IsDigit(c) || strings.ContainsRune("!#$%&'*+-.^_`|~", c)
}

// IsValidToken reports whether s is a non-empty token, as used for
// field names and methods.
func IsValidToken(s string) bool {
	return s != "" && !strings.ContainsFunc(s, func(c rune) bool { return !IsTchar(c) })
}
