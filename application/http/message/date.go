package message

import (
	"time"

	"github.com/pkg/errors"
)

// Accepted HTTP-date layouts, preferred first.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.7
var dateLayouts = []string{
	time.RFC1123, // IMF-fixdate
	time.RFC850,  // obsolete RFC 850 format
	time.ANSIC,   // obsolete asctime format
}

// ParseDate parses an HTTP-date. asctime dates carry no zone and are
// returned in UTC.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.Errorf("invalid time format: %q", raw)
}

// Date returns the time in the Date header.
// ok is false when the header is absent.
func (r *Response) Date() (t time.Time, ok bool, err error) {
	v, found := r.headers.Lookup("Date")
	if !found || len(v) == 0 {
		return time.Time{}, false, nil
	}

	t, err = ParseDate(v[0])
	if err != nil {
		return time.Time{}, true, err
	}

	return t, true, nil
}
