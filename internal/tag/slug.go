package tag

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^\w-]+`)
)

// CanonicalName is the stored form of a tag name: trimmed and lower-cased.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Slugify lower-cases name, turns whitespace runs into '-' and strips
// everything outside [A-Za-z0-9_-].
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = whitespaceRun.ReplaceAllString(slug, "-")
	return nonSlugChars.ReplaceAllString(slug, "")
}
