package storage

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// untitledSlug is the fixed placeholder for titles that slugify to
	// nothing (empty or all punctuation).
	untitledSlug = "untitled-patch"

	// unknownDatePrefix is used when the date field is empty.
	unknownDatePrefix = "unknown-date"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	nonSlugChars   = regexp.MustCompile(`[^\w\-]`)
	hyphenRun      = regexp.MustCompile(`-+`)
	leadingISODate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
)

// datePrefixLayouts are tried in order when the date string is not ISO.
var datePrefixLayouts = []string{
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
	"01/02/2006",
}

// IdentityKey derives the stable deduplication key for a note:
// "{datePrefix}_{titleSlug}". It is a pure function of date and title.
func IdentityKey(date, title string) string {
	return DatePrefix(date) + "_" + TitleSlug(title)
}

// DatePrefix reduces a date string to its YYYY-MM-DD portion, falling
// back to a slug of the original text when no date can be recognized.
// Two unparseable date strings that slugify identically will collide;
// combined with identical titles the second note is silently dropped.
func DatePrefix(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return unknownDatePrefix
	}

	if idx := strings.IndexByte(date, 'T'); idx > 0 {
		return date[:idx]
	}

	for _, layout := range datePrefixLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if match := leadingISODate.FindString(date); match != "" {
		return match
	}

	if slug := Slugify(date); slug != "" {
		return slug
	}
	return unknownDatePrefix
}

// TitleSlug slugifies a title, substituting a fixed placeholder when
// the slug would be empty so identity keys are always non-empty.
func TitleSlug(title string) string {
	if slug := Slugify(title); slug != "" {
		return slug
	}
	return untitledSlug
}

// Slugify renders text as a lowercase, hyphen-separated,
// filesystem-safe slug. Diacritics are folded to their base letters.
func Slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	// Fold diacritics: NFD decomposition, then strip combining marks.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, text); err == nil {
		text = folded
	}

	text = whitespaceRun.ReplaceAllString(text, "-")
	text = nonSlugChars.ReplaceAllString(text, "")
	text = hyphenRun.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}
