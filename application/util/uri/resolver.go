package uri

import (
	"http-message/lib/ds/stack"
	"strings"

	"github.com/pkg/errors"
)

// HasAuthority reports whether any authority component is set.
func (u URI) HasAuthority() bool {
	return u.user != "" || u.password != "" || u.host != "" || u.port != nil
}

// Resolve resolves ref against base, which must carry a scheme.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func Resolve(base, ref URI) (out URI, err error) {
	if base.scheme == "" {
		return URI{}, errors.New("base URI must have a scheme")
	}

	out = ref
	defer func() {
		if err == nil {
			out.path = removeDotSegments(out.path)
		}
	}()

	if out.scheme != "" {
		return out, nil
	}
	out.scheme = base.scheme

	if out.HasAuthority() {
		return out, nil
	}
	out.user, out.password = base.user, base.password
	out.host, out.port = base.host, base.port

	if out.path != "" {
		if !strings.HasPrefix(out.path, "/") {
			out.path = mergePath(base, out)
		}
		return out, nil
	}
	out.path = base.path

	if out.query == "" {
		out.query = base.query
	}

	return out, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref URI) string {
	if base.HasAuthority() && base.path == "" {
		return "/" + ref.path
	}

	if idx := strings.LastIndexByte(base.path, '/'); idx >= 0 {
		return base.path[:idx+1] + ref.path
	}

	return ref.path
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	out := stack.New[string](0)

	for len(path) > 0 {
		var found bool
		// "../" and "./" prefixes are dropped.
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		// "/./" and "/." collapse to "/".
		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		// "/../" and "/.." collapse to "/" and pop the last output segment.
		if path, found = strings.CutPrefix(path, "/../"); found {
			_, _ = out.Pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			_, _ = out.Pop()
			path = "/"
			continue
		}

		if path == ".." || path == "." {
			break
		}

		// Move the first segment, with its leading '/', to the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out.Push(path[:idx])
		path = path[idx:]
	}

	return strings.Join(out.Data(), "")
}
