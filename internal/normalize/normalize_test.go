package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"fr", "fr"},
		{"eng", "en"},
		{"ger", "de"}, // bibliographic variant
		{"en-US", "en"},
		{"en_GB", "en"},
		{"English", "en"},
		{"ENGLISH", "en"},
		{"", ""},
		{"  en  ", "en"},
		{"xyz", ""},
		{"en\x00", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LanguageCode(tt.input))
		})
	}
}

func TestLanguageCodes(t *testing.T) {
	got := LanguageCodes([]string{"eng", "English", "fre", "klingon", "en-US"})
	assert.Equal(t, []string{"en", "fr"}, got)
	assert.Empty(t, LanguageCodes(nil))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "science--fiction", Subject("  Science--Fiction. "))
	assert.Equal(t, "gothic fiction", Subject("Gothic   Fiction"))
	assert.Equal(t, "fi", Subject("ﬁ")) // ligature folds under NFKC
	assert.Equal(t, "", Subject("..."))
}

func TestSubjects(t *testing.T) {
	got := Subjects([]string{"Horror", "horror.", "", "Gothic Fiction"})
	assert.Equal(t, []string{"horror", "gothic fiction"}, got)
}

func TestISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-14-143947-1", "9780141439471"},
		{"0 14 143947 x", "014143947X"},
		{"014143947X", "014143947X"},
		{"01414X9471", ""},
		{"12345", ""},
		{"978014143947A", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ISBN(tt.input))
		})
	}
}
