package similarity

import (
	"cmp"
	"slices"
)

// Table maps a book id to its related book ids and their scores.
type Table map[string]map[string]float64

// Set records score in both directions. Self pairs are ignored.
func (t Table) Set(a, b string, score float64) {
	if a == b {
		return
	}
	t.row(a)[b] = score
	t.row(b)[a] = score
}

func (t Table) row(id string) map[string]float64 {
	r, ok := t[id]
	if !ok {
		r = make(map[string]float64)
		t[id] = r
	}
	return r
}

// Pairs returns the number of unordered pairs in the table.
func (t Table) Pairs() int {
	n := 0
	for _, r := range t {
		n += len(r)
	}
	return n / 2
}

// Related is one entry of a similarity row.
type Related struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Ranked orders a row by descending score, then ascending id.
func Ranked(row map[string]float64) []Related {
	out := make([]Related, 0, len(row))
	for id, score := range row {
		out = append(out, Related{ID: id, Score: score})
	}
	slices.SortFunc(out, func(a, b Related) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Build scores every unordered pair of books once and keeps the pairs at or
// above threshold. With shortCircuit, scanning a row stops at the first
// pair below threshold, which can drop later pairs that would have passed.
func Build(books []ScoreBook, threshold float64, shortCircuit bool) Table {
	t := make(Table)
	for i := range books {
		for j := i + 1; j < len(books); j++ {
			if books[i].ID == books[j].ID {
				continue
			}
			score := Score(books[i], books[j])
			if score < threshold {
				if shortCircuit {
					break
				}
				continue
			}
			t.Set(books[i].ID, books[j].ID, score)
		}
	}
	return t
}
