package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
)

func TestNewTaxonomy_Tiers(t *testing.T) {
	tax, err := NewTaxonomy([]Group{
		{Category: "Fiction", Main: "Fantasy", Associates: []string{"fantasy", "Epic Fantasy", "magic"}},
		{Category: "fiction", Main: "horror", Associates: []string{"ghost stories", "magic"}},
		{Category: "non-fiction", Main: "history", Associates: []string{"ancient history"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"fiction", "non-fiction"}, tax.Categories())
	assert.Equal(t, []string{"fantasy", "horror", "history"}, tax.Mains())
	assert.Equal(t, []string{"epic fantasy", "magic", "ghost stories", "ancient history"}, tax.Specifics(),
		"own name is excluded and the first group keeps a shared keyword")

	main, ok := tax.MainOf("magic")
	require.True(t, ok)
	assert.Equal(t, "fantasy", main)

	category, ok := tax.CategoryOf("history")
	require.True(t, ok)
	assert.Equal(t, "non-fiction", category)
}

func TestNewTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		groups []Group
	}{
		{"no groups", nil},
		{"empty main", []Group{{Category: "fiction"}}},
		{"empty category", []Group{{Main: "fantasy"}}},
		{"duplicate main", []Group{
			{Category: "fiction", Main: "fantasy"},
			{Category: "fiction", Main: "Fantasy"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTaxonomy(tt.groups)
			assert.Error(t, err)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	tax := Default()
	assert.Equal(t, []string{CategoryFiction, CategoryNonFiction, CategorySelfHelp}, tax.Categories())
	assert.Len(t, tax.Mains(), len(DefaultGroups))

	for _, s := range tax.Specifics() {
		_, ok := tax.MainOf(s)
		assert.True(t, ok, "specific %q has no main genre", s)
	}
}

func TestClassify(t *testing.T) {
	tax := Default()

	tests := []struct {
		name     string
		subjects []string
		want     string
	}{
		{"specific resolves to main", []string{"Epic Fantasy"}, "fantasy"},
		{"exact entry wins over fuzzy", []string{"Horror tales", "Science fiction"}, "horror"},
		{"first exact subject wins", []string{"Science fiction", "Horror tales"}, "science fiction"},
		{"main tier", []string{"Fantasy"}, "fantasy"},
		{"case insensitive", []string{"HORROR"}, "horror"},
		{"category tier", []string{"Fiction"}, "fiction"},
		{"historical is not romance", []string{"Historical fiction"}, "historical fiction"},
		{"library heading", []string{"Vampires -- Fiction"}, "horror"},
		{"punctuation folds into words", []string{"Sci-Fi"}, "science fiction"},
		{"fallback most frequent", []string{"Quantum chromodynamics", "zzz", "zzz"}, "zzz"},
		{"fallback tie goes to last", []string{"alpha", "beta"}, "beta"},
		{"fallback non-latin", []string{"роман"}, "роман"},
		{"empty", nil, ""},
		{"blank only", []string{"  ", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.subjects, tax))
		})
	}
}

func TestClassify_NearMissReachesTaxonomy(t *testing.T) {
	tax := Default()

	tests := map[string]string{
		"fantasy novels":         "fantasy",
		"space opera adventures": "science fiction",
		"detective stories":      "mystery",
		"horror stories":         "horror",
		"Self-help techniques":   "self help",
	}
	for subject, want := range tests {
		assert.Equal(t, want, Classify([]string{subject}, tax), "Classify(%q)", subject)
	}
}

func TestClassify_NeverEmptyForNonBlankInput(t *testing.T) {
	tax := Default()
	inputs := [][]string{
		{"x"},
		{"a", "b", "c"},
		{"Mathematics -- Study and teaching"},
		{"?!", "ok"},
	}
	for _, in := range inputs {
		assert.NotEmpty(t, Classify(in, tax), "input %v", in)
	}
}

func TestClassifier_MinScore(t *testing.T) {
	tax := Default()
	subjects := []string{"space opera adventures"}

	assert.Equal(t, "science fiction", NewClassifier(tax, 0).Classify(subjects))
	assert.Equal(t, "science fiction", NewClassifier(tax, 0.6).Classify(subjects))
	assert.Equal(t, "space opera adventures", NewClassifier(tax, 0.9).Classify(subjects))
	assert.Equal(t, "space opera adventures", NewClassifier(tax, 7).Classify(subjects),
		"minimum is clamped to 1")
	assert.Equal(t, "science fiction", NewClassifier(tax, -1).Classify(subjects),
		"minimum is clamped to 0")
	assert.Equal(t, "horror", NewClassifier(tax, 1).Classify([]string{"Horror"}),
		"exact entries ignore the minimum")
}

func TestWordOverlap(t *testing.T) {
	var m WordOverlap

	assert.InDelta(t, 1.0, m.Compare("sci-fi", "Sci Fi"), 1e-12)
	assert.InDelta(t, 2.0/3, m.Compare("space opera adventures", "space opera"), 1e-12)
	assert.InDelta(t, 1.0/3, m.Compare("horror stories", "ghost stories"), 1e-12)
	assert.Zero(t, m.Compare("alpha", "health"))
	assert.Zero(t, m.Compare("", "fantasy"))
	assert.Zero(t, m.Compare("?!", "?!"))
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"Science Fiction":                    "science_fiction",
		"Sci-Fi":                             "sci_fi",
		"  Self-Help ":                       "self_help",
		"Historical fiction -- 19th century": "historical_fiction_19th_century",
		"Poésie":                             "poesie",
		"":                                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Key(in), "Key(%q)", in)
	}
}

func TestDivideByGenre(t *testing.T) {
	books := []*domain.CatalogBook{
		{ID: "1", Subject: []string{"Science Fiction", "Horror"}},
		{ID: "2", Subject: []string{"Sci-Fi"}},
		{ID: "3", Subject: []string{"Historical fiction -- 19th century"}},
		{ID: "4", Subject: []string{"Love stories"}},
		{ID: "5", Subject: []string{"Cooking"}},
		{ID: "6"},
	}

	got := DivideByGenre(books)
	require.Len(t, got, len(DistributionGenres)+1)
	assert.Equal(t, OtherGenre, got[len(got)-1].Genre)

	counts := make(map[string]int, len(got))
	for _, c := range got {
		counts[c.Genre] = c.Count
	}

	assert.Equal(t, 2, counts["science_fiction"], "equality and synonym")
	assert.Equal(t, 1, counts["horror"])
	assert.Equal(t, 1, counts["historical_fiction"], "containment")
	assert.Equal(t, 1, counts["romance"], "synonym")
	assert.Equal(t, 0, counts["poetry"])
	assert.Equal(t, 2, counts[OtherGenre])
}

func TestDivideByGenre_Empty(t *testing.T) {
	got := DivideByGenre(nil)
	require.Len(t, got, len(DistributionGenres)+1)
	for _, c := range got {
		assert.Zero(t, c.Count)
	}
}
