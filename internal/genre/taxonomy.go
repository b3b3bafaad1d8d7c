// Package genre classifies free-text subject lists into a fixed genre
// taxonomy and buckets the catalog by genre for statistics.
package genre

import (
	"fmt"
	"slices"

	"github.com/folioapp/folio-server/internal/normalize"
)

// Taxonomy is the three-tier genre vocabulary: categories, main genres and
// specific keywords. It is immutable once built and safe for concurrent use.
type Taxonomy struct {
	categories []string
	mains      []string
	specifics  []string

	mainOf     map[string]string // specific -> main
	categoryOf map[string]string // main -> category
}

// NewTaxonomy builds a taxonomy from associate groups. Names are normalized
// like subjects. A specific keyword listed by several groups belongs to the
// first group that lists it.
func NewTaxonomy(groups []Group) (*Taxonomy, error) {
	t := &Taxonomy{
		mainOf:     make(map[string]string),
		categoryOf: make(map[string]string),
	}

	for i, g := range groups {
		main := normalize.Subject(g.Main)
		category := normalize.Subject(g.Category)
		if main == "" {
			return nil, fmt.Errorf("group %d: empty main genre", i)
		}
		if category == "" {
			return nil, fmt.Errorf("group %q: empty category", g.Main)
		}
		if _, dup := t.categoryOf[main]; dup {
			return nil, fmt.Errorf("group %q: duplicate main genre", g.Main)
		}

		t.categoryOf[main] = category
		t.mains = append(t.mains, main)
		if !slices.Contains(t.categories, category) {
			t.categories = append(t.categories, category)
		}

		for _, a := range g.Associates {
			specific := normalize.Subject(a)
			if specific == "" || specific == main {
				continue
			}
			if _, claimed := t.mainOf[specific]; claimed {
				continue
			}
			t.mainOf[specific] = main
			t.specifics = append(t.specifics, specific)
		}
	}

	if len(t.mains) == 0 {
		return nil, fmt.Errorf("taxonomy has no groups")
	}
	return t, nil
}

// MustNewTaxonomy is like NewTaxonomy but panics on invalid groups.
func MustNewTaxonomy(groups []Group) *Taxonomy {
	t, err := NewTaxonomy(groups)
	if err != nil {
		panic(fmt.Sprintf("invalid taxonomy: %v", err))
	}
	return t
}

// Default builds the taxonomy from DefaultGroups.
func Default() *Taxonomy {
	return MustNewTaxonomy(DefaultGroups)
}

// Categories returns the category tier in declaration order.
func (t *Taxonomy) Categories() []string { return slices.Clone(t.categories) }

// Mains returns the main genre tier in declaration order.
func (t *Taxonomy) Mains() []string { return slices.Clone(t.mains) }

// Specifics returns the specific keyword tier in declaration order.
func (t *Taxonomy) Specifics() []string { return slices.Clone(t.specifics) }

// MainOf returns the main genre a specific keyword belongs to.
func (t *Taxonomy) MainOf(specific string) (string, bool) {
	main, ok := t.mainOf[specific]
	return main, ok
}

// CategoryOf returns the category of a main genre.
func (t *Taxonomy) CategoryOf(main string) (string, bool) {
	category, ok := t.categoryOf[main]
	return category, ok
}
