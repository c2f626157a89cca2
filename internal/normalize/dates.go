package normalize

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Go's non-padded month/day verbs also
// accept zero-padded input, so "2006-1-2" covers "2024-01-05".
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-1-2T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006年1月2日",
	"2006年1月2日 15:04:05",
	"2006年1月2日 15:04",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
	"Mon Jan 2 2006 15:04:05",
}

// ParseDate parses a free-form date string. It only succeeds when the
// year falls within 1900..2100.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if y := t.Year(); y < minYear || y > maxYear {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// DateKey returns the YYYY-MM-DD key for a string, if it parses.
func DateKey(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}
