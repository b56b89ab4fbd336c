package domain

import (
	"strings"
	"time"
)

// isoLayout matches what browsers emit for Date.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
}

// ParseTime parses the ISO-8601 forms accepted by the web client. Values
// without an offset are read in local time.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t the way it is persisted.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// CoerceDate returns nil for empty or unparsable values and a copy otherwise.
// Applying it twice gives the same result as applying it once.
func CoerceDate(v *string) *string {
	if v == nil {
		return nil
	}
	if _, ok := ParseTime(*v); !ok {
		return nil
	}
	s := *v
	return &s
}

// DateOf parses an optional date, reporting whether it is usable.
func DateOf(v *string) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	return ParseTime(*v)
}

// OptionalDate turns an empty string into nil.
func OptionalDate(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return CoerceDate(&s)
}
