package uri

import (
	"strconv"
	"strings"

	"http-message/lib/types/pointer"

	"github.com/pkg/errors"
)

// URI is an immutable value. Every With* method returns an updated copy,
// so two URIs derived from the same base never observe each other's edits.
//
// Components are kept verbatim: Parse does not decode percent-encoding
// and With* does not validate.
type URI struct {
	scheme   string
	user     string
	password string
	host     string
	port     *uint16
	path     string
	query    string
	fragment string
}

func (u URI) Scheme() string   { return u.scheme }
func (u URI) User() string     { return u.user }
func (u URI) Password() string { return u.password }
func (u URI) Host() string     { return u.host }
func (u URI) Path() string     { return u.path }
func (u URI) Query() string    { return u.query }
func (u URI) Fragment() string { return u.fragment }

// Port reports the port and whether one is set.
func (u URI) Port() (uint16, bool) {
	if u.port == nil {
		return 0, false
	}
	return *u.port, true
}

func (u URI) WithScheme(scheme string) URI {
	u.scheme = scheme
	return u
}

// WithUserInfo sets user and password. An empty password removes it.
func (u URI) WithUserInfo(user, password string) URI {
	u.user, u.password = user, password
	return u
}

func (u URI) WithHost(host string) URI {
	u.host = host
	return u
}

func (u URI) WithPort(port uint16) URI {
	u.port = pointer.To(port)
	return u
}

func (u URI) WithoutPort() URI {
	u.port = nil
	return u
}

func (u URI) WithPath(path string) URI {
	u.path = path
	return u
}

func (u URI) WithQuery(query string) URI {
	u.query = query
	return u
}

func (u URI) WithFragment(fragment string) URI {
	u.fragment = fragment
	return u
}

// IsZero reports whether no component is set.
func (u URI) IsZero() bool {
	return u.scheme == "" && u.user == "" && u.password == "" && u.host == "" &&
		u.port == nil && u.path == "" && u.query == "" && u.fragment == ""
}

// Equal compares u and other component-wise.
func (u URI) Equal(other URI) bool {
	p1, ok1 := u.Port()
	p2, ok2 := other.Port()
	return u.scheme == other.scheme &&
		u.user == other.user &&
		u.password == other.password &&
		u.host == other.host &&
		ok1 == ok2 && p1 == p2 &&
		u.path == other.path &&
		u.query == other.query &&
		u.fragment == other.fragment
}

// UserInfo returns "user[:password]", or "" when there is no user.
func (u URI) UserInfo() string {
	if u.user == "" {
		return ""
	}
	if u.password == "" {
		return u.user
	}
	return u.user + ":" + u.password
}

// Authority returns "[userinfo@]host[:port]".
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2
func (u URI) Authority() string {
	b := new(strings.Builder)
	if userInfo := u.UserInfo(); userInfo != "" {
		b.WriteString(userInfo)
		b.WriteByte('@')
	}
	b.WriteString(u.host)
	if u.port != nil {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(*u.port), 10))
	}
	return b.String()
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u URI) String() string {
	b := new(strings.Builder)
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteByte(':')
	}

	authority := u.Authority()
	if authority != "" {
		b.WriteString("//")
		b.WriteString(authority)
	}

	if u.path != "" {
		if authority != "" && u.path[0] != '/' {
			// A path following an authority must be absolute.
			b.WriteByte('/')
		}
		b.WriteString(u.path)
	}

	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}

	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}

	return b.String()
}

// RequestTarget returns the origin-form used on an HTTP/1.1 request line.
// Bytes not allowed in a request-target are percent-encoded,
// existing percent-encoded triplets are kept as they are.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u URI) RequestTarget() string {
	path := u.path
	if path == "" {
		path = "/"
	} else if path[0] != '/' {
		path = "/" + path
	}

	target := escape(path, pathChars)
	if u.query != "" {
		target += "?" + escape(u.query, queryChars)
	}

	return target
}

// DefaultPort returns the well-known port of scheme, or 0 if unknown.
func DefaultPort(scheme string) uint16 {
	switch strings.ToLower(scheme) {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

// Parse decomposes rawURL into its components.
// Missing components are left empty. Only structurally broken input fails.
func Parse(rawURL string) (URI, error) {
	if containsCTL(rawURL) {
		return URI{}, errors.New("URI should not contain CTL bytes")
	}

	var u URI

	scheme, rest := cutScheme(rawURL)
	u.scheme = scheme

	if strings.HasPrefix(rest, "//") {
		var authorityRaw string
		authorityRaw, rest = rest[2:], ""
		if i := strings.IndexAny(authorityRaw, "/?#"); i >= 0 {
			authorityRaw, rest = authorityRaw[:i], authorityRaw[i:]
		}

		if err := u.parseAuthority(authorityRaw); err != nil {
			return URI{}, errors.Wrap(err, "parsing authority")
		}
	}

	u.path, u.query, u.fragment = splitPathQueryFrag(rest)

	return u, nil
}

// cutScheme cuts scheme from rawURL.
// If the part before ':' is not a valid scheme, rawURL has no scheme.
func cutScheme(rawURL string) (scheme, rest string) {
	idx := strings.IndexByte(rawURL, ':')
	if idx < 0 {
		return "", rawURL
	}

	if strings.ContainsAny(rawURL[:idx], "/?#") {
		// ':' belongs to path, query or fragment.
		return "", rawURL
	}

	if !isValidScheme(rawURL[:idx]) {
		return "", rawURL
	}

	return rawURL[:idx], rawURL[idx+1:]
}

func (u *URI) parseAuthority(raw string) error {
	hostPort := raw
	if i := strings.LastIndexByte(raw, '@'); i >= 0 {
		userInfo := raw[:i]
		hostPort = raw[i+1:]

		u.user, u.password, _ = strings.Cut(userInfo, ":")
	}

	host, portPart, err := splitHostPort(hostPort)
	if err != nil {
		return errors.Wrap(err, "parsing host")
	}

	port, hasPort, err := ParsePort(portPart)
	if err != nil {
		return errors.Wrap(err, "parsing port")
	}

	u.host = host
	if hasPort {
		u.port = pointer.To(port)
	}

	return nil
}

func splitHostPort(raw string) (host string, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		// This is IP Literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP Literal")
		}

		host = raw[:idx+1]
		portPart = raw[idx+1:]
		if portPart != "" && portPart[0] != ':' {
			return "", "", errors.Errorf("unexpected bytes after IP Literal: %q", portPart)
		}
		return host, portPart, nil
	}

	// ipv4 or reg-name.
	host = raw
	if idx := strings.LastIndex(raw, ":"); idx >= 0 {
		host = raw[:idx]
		portPart = raw[idx:]
	}

	return host, portPart, nil
}

// ParsePort parses ":port". An empty string or a lone ':' means no port.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
func ParsePort(s string) (port uint16, hasPort bool, err error) {
	if s == "" {
		return 0, false, nil
	}

	if s[0] != ':' {
		return 0, false, errors.New("colon delimiter not found on port")
	}

	s = s[1:]
	if s == "" {
		return 0, false, nil
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false, errors.Errorf("port is not numeric: %q", s)
		}
	}

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse uint")
	}

	return uint16(n), true, nil
}

func splitPathQueryFrag(raw string) (path, query, frag string) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		frag = raw[idx+1:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx+1:]
		raw = raw[:idx]
	}

	path = raw
	return
}
