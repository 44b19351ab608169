package patch

import (
	"regexp"
	"strings"
	"time"
)

const (
	forumDateLayout = "Jan 2, 2006, 3:04:05 PM"
	isoDateLayout   = "2006-01-02T15:04:05"
)

var (
	isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}:\d{2})?`)
	weekdayPrefix  = regexp.MustCompile(`^[A-Za-z]{3,},\s+`)
)

// NormalizeDate standardizes a free-text date to ISO-8601 where
// possible. Attempts, in order: an embedded ISO substring, the forum's
// "on Jan 2, 2006, 3:04:05 PM" phrasing, and finally the original
// string unmodified. Failure to parse is degradation, not an error.
func NormalizeDate(raw string) string {
	if raw == "" {
		return raw
	}

	if match := isoDatePattern.FindString(raw); match != "" {
		return match
	}

	candidate := raw
	if idx := strings.Index(strings.ToLower(raw), "on "); idx >= 0 {
		candidate = raw[idx+len("on "):]
	}
	candidate = weekdayPrefix.ReplaceAllString(strings.TrimSpace(candidate), "")

	if t, err := time.Parse(forumDateLayout, candidate); err == nil {
		return t.Format(isoDateLayout)
	}

	return raw
}
