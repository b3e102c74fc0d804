package reltime

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseInstant parses a timestamp attribute value.
//
// RFC 3339 values carry their own offset. A bare date is midnight UTC, and a
// date-time without offset is read in loc, which is how browsers interpret
// those forms. Anything else goes through dateparse (RFC 1123, "Jan 2 2006",
// Unix seconds, ...) in loc. A nil loc means time.Local.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedInstant)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedInstant, s)
	}
	return t, nil
}
