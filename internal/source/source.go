// Package source defines the contract every third-party book source
// implements, plus the shared HTTP transport the adapters use.
package source

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Source names a third-party book provider.
type Source string

// Known sources.
const (
	Goodreads    Source = "goodreads"
	AnnasArchive Source = "annas-archive"
	OpenLibrary  Source = "open-library"
	Gutenberg    Source = "gutenberg"
	BestBooks    Source = "best-books"
)

// All lists every known source in a stable order.
var All = []Source{Goodreads, AnnasArchive, OpenLibrary, Gutenberg, BestBooks}

// Parse validates a raw source name. Case-insensitive; underscores are
// accepted in place of hyphens.
func Parse(raw string) (Source, error) {
	s := Source(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-"))
	if !slices.Contains(All, s) {
		return "", fmt.Errorf("unknown source %q", raw)
	}
	return s, nil
}

// Query is the generic search request every adapter translates into its
// own URL schema.
type Query struct {
	Text     string
	Title    string
	Author   string
	Language string
	Limit    int
}

// Terms joins the free-text parts of q for sources with a single search box.
func (q Query) Terms() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{q.Text, q.Title, q.Author} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Summary is the source-independent projection of a SourceBook.
type Summary struct {
	Source     Source   `json:"source"`
	ExternalID string   `json:"externalId"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Subjects   []string `json:"subjects,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	ISBN       string   `json:"isbn,omitempty"`
	Year       int      `json:"year,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	Ebook      bool     `json:"ebook"`
}

// SourceBook is one normalized book from a source. Each source has its own
// concrete type carrying source-specific fields.
type SourceBook interface {
	Summary() Summary
}

// Result is a page of normalized books.
type Result struct {
	Books        []SourceBook `json:"books"`
	TotalResults int          `json:"totalResults"`
	CurrentPage  int          `json:"currentPage"`
}

// Adapter fetches and normalizes one provider's book data.
// A transport failure and an unexpected response shape are both returned
// as errors; the latter matches ErrInvalidResponse.
type Adapter interface {
	Source() Source
	FetchBooks(ctx context.Context, q Query, page int) (*Result, error)
}

// ByIDSearcher is implemented by adapters that can resolve a single book
// by its source-specific identifier.
type ByIDSearcher interface {
	SearchByID(ctx context.Context, id string) (SourceBook, error)
}

// Registry maps each configured source to its adapter.
type Registry map[Source]Adapter

// NewRegistry builds a registry keyed by each adapter's Source.
func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Source()] = a
	}
	return r
}

// Sources returns the registered sources in the order of All.
func (r Registry) Sources() []Source {
	out := make([]Source, 0, len(r))
	for _, s := range All {
		if _, ok := r[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Page returns page, or 1 when page is not positive.
func Page(page int) int { return max(page, 1) }
