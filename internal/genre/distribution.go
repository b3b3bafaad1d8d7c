package genre

import (
	"strings"

	"github.com/folioapp/folio-server/internal/domain"
)

// GenreCount is one bucket of the catalog distribution.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// DivideByGenre counts books per distribution genre. A book counts toward
// every genre one of its subjects equals, contains, or is a synonym of, so
// the buckets overlap. Books matching no genre are counted under
// OtherGenre. The result lists DistributionGenres in order, then other.
func DivideByGenre(books []*domain.CatalogBook) []GenreCount {
	counts := make([]GenreCount, 0, len(DistributionGenres)+1)
	for _, g := range DistributionGenres {
		counts = append(counts, GenreCount{Genre: g})
	}
	other := GenreCount{Genre: OtherGenre}

	for _, b := range books {
		keys := make([]string, 0, len(b.Subject))
		for _, s := range b.Subject {
			if k := Key(s); k != "" {
				keys = append(keys, k)
			}
		}

		matched := false
		for i := range counts {
			if matchesGenre(keys, counts[i].Genre) {
				counts[i].Count++
				matched = true
			}
		}
		if !matched {
			other.Count++
		}
	}

	return append(counts, other)
}

func matchesGenre(subjectKeys []string, genre string) bool {
	for _, k := range subjectKeys {
		if k == genre || strings.Contains(k, genre) || Synonyms[k] == genre {
			return true
		}
	}
	return false
}
