package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugSeparate = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts s to an ASCII slug: accents are decomposed and
// dropped, anything that isn't a letter, digit, underscore, space or
// hyphen is removed, the result is lower-cased and trimmed, and runs of
// spaces and hyphens become a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	ascii = slugStrip.ReplaceAllString(strings.ToLower(ascii), "")
	ascii = slugSeparate.ReplaceAllString(strings.TrimSpace(ascii), "-")
	return strings.Trim(ascii, "-_")
}
