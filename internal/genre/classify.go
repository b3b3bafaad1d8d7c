package genre

import (
	"slices"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/folioapp/folio-server/internal/normalize"
)

// DefaultMinScore accepts any tier match that shares at least one word with
// a subject.
const DefaultMinScore = 0

// Classifier maps subject lists to a single genre.
type Classifier struct {
	taxonomy *Taxonomy
	minScore float64
	metric   strutil.StringMetric
	tiebreak strutil.StringMetric
}

// NewClassifier creates a classifier over t. minScore is clamped to [0, 1];
// a tier match must score above zero and at least minScore.
func NewClassifier(t *Taxonomy, minScore float64) *Classifier {
	switch {
	case minScore < 0:
		minScore = 0
	case minScore > 1:
		minScore = 1
	}
	return &Classifier{
		taxonomy: t,
		minScore: minScore,
		metric:   WordOverlap{},
		tiebreak: metrics.NewJaroWinkler(),
	}
}

// Classify returns the genre of a book with the given subjects using the
// default minimum score.
func Classify(subjects []string, t *Taxonomy) string {
	return NewClassifier(t, DefaultMinScore).Classify(subjects)
}

// Classify returns the genre for subjects. A subject naming a taxonomy entry
// exactly wins first. Otherwise the specific, main and category tiers are
// tried in that order; in each tier the best scoring (subject, entry) pair
// wins if its score is positive and at least the minimum. A specific keyword
// resolves to its main genre. When no tier matches, the most frequent
// subject is returned, ties going to the one seen last. Returns "" only when
// subjects has no non-blank entry.
func (c *Classifier) Classify(subjects []string) string {
	cleaned := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if n := normalize.Subject(s); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}

	if g, ok := c.exactMatch(cleaned); ok {
		return g
	}
	if specific, ok := c.bestMatch(cleaned, c.taxonomy.specifics); ok {
		main, _ := c.taxonomy.MainOf(specific)
		return main
	}
	if main, ok := c.bestMatch(cleaned, c.taxonomy.mains); ok {
		return main
	}
	if category, ok := c.bestMatch(cleaned, c.taxonomy.categories); ok {
		return category
	}
	return mostFrequent(cleaned)
}

func (c *Classifier) exactMatch(subjects []string) (string, bool) {
	for _, s := range subjects {
		if main, ok := c.taxonomy.MainOf(s); ok {
			return main, true
		}
		if _, ok := c.taxonomy.CategoryOf(s); ok {
			return s, true
		}
		if slices.Contains(c.taxonomy.categories, s) {
			return s, true
		}
	}
	return "", false
}

func (c *Classifier) bestMatch(subjects, entries []string) (string, bool) {
	var (
		best      string
		bestScore float64
		bestTie   float64
	)
	for _, s := range subjects {
		for _, e := range entries {
			score := strutil.Similarity(s, e, c.metric)
			if score <= 0 || score < bestScore {
				continue
			}
			tie := strutil.Similarity(s, e, c.tiebreak)
			if score > bestScore || tie > bestTie {
				best, bestScore, bestTie = e, score, tie
			}
		}
	}
	if bestScore <= 0 || bestScore < c.minScore {
		return "", false
	}
	return best, true
}

// WordOverlap is the Jaccard index of the word multisets of two strings.
// Words are maximal runs of letters and digits, so "sci-fi" and "sci fi"
// compare equal and unrelated words score zero.
type WordOverlap struct{}

// Compare implements strutil.StringMetric.
func (WordOverlap) Compare(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(wa))
	for _, w := range wa {
		counts[w]++
	}
	common := 0
	for _, w := range wb {
		if counts[w] > 0 {
			counts[w]--
			common++
		}
	}
	return float64(common) / float64(len(wa)+len(wb)-common)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func mostFrequent(subjects []string) string {
	counts := make(map[string]int, len(subjects))
	for _, s := range subjects {
		counts[s]++
	}

	var (
		best      string
		bestCount int
	)
	for _, s := range subjects {
		if counts[s] >= bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}
