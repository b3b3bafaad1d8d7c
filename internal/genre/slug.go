package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of characters that are not lowercase alphanumeric.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// Key folds a genre or subject into the underscore form used for the
// catalog distribution.
// "Science Fiction" -> "science_fiction".
// "Sci-Fi" -> "sci_fi".
// "Historical fiction -- 19th century" -> "historical_fiction_19th_century".
func Key(s string) string {
	// Decompose accented characters, then drop the marks.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
