package appointment

import (
	"strings"
	"time"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

// Naive layouts are read in the reference zone. Fractional seconds are
// accepted after the seconds field without being named in the layout.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseFlexible accepts an offset-qualified RFC 3339 timestamp or a naive
// one with or without seconds.
func ParseFlexible(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Validation("timestamp is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("unparseable timestamp %q", s)
}
