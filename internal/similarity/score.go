// Package similarity scores pairs of catalog books and builds the sparse,
// genre-partitioned similarity tables read by the recommendation engine.
package similarity

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/folioapp/folio-server/internal/domain"
)

// Signal weights. A score is the weighted sum divided by TotalWeight.
const (
	TitleWeight   = 10.0
	AuthorWeight  = 40.0
	SubjectWeight = 30.0
	RatingWeight  = 20.0
	YearWeight    = 10.0

	TotalWeight = TitleWeight + AuthorWeight + SubjectWeight + RatingWeight + YearWeight
)

// ScoreBook is the projection of a catalog book used for scoring.
type ScoreBook struct {
	ID       string
	Title    string
	Authors  []string
	Subjects []string
	Year     int
	Rating   float64
}

// FromCatalog projects a catalog book.
func FromCatalog(b *domain.CatalogBook) ScoreBook {
	return ScoreBook{
		ID:       b.ID,
		Title:    b.Title,
		Authors:  b.Author,
		Subjects: b.Subject,
		Year:     b.PublishedYear,
		Rating:   b.Rating,
	}
}

var titleMetric = metrics.NewSorensenDice()

// Score computes the composite similarity of a to b.
//
// The rating term uses only a's rating, so Score(a, b) and Score(b, a)
// differ whenever the ratings do. Tables store the score computed for the
// earlier book of each pair in both directions. A year term is only added
// when both years are known.
func Score(a, b ScoreBook) float64 {
	sum := strutil.Similarity(a.Title, b.Title, titleMetric) * TitleWeight
	sum += overlap(a.Authors, b.Authors) * AuthorWeight
	sum += overlap(a.Subjects, b.Subjects) * SubjectWeight
	sum += a.Rating * min(1, RatingWeight)
	if a.Year != 0 && b.Year != 0 {
		sum += max(0, YearWeight-float64(abs(a.Year-b.Year)))
	}
	return sum / TotalWeight
}

// overlap is |A∩B| / max(|A|, |B|), 0 when both are empty.
func overlap(a, b []string) float64 {
	larger := max(len(a), len(b))
	if larger == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	shared := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			shared++
			delete(set, v)
		}
	}
	return float64(shared) / float64(larger)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
