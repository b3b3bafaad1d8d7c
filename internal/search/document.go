// Package search provides filtered full-text search over the catalog using
// Bleve. The index is a secondary structure: the Badger store stays the
// source of truth and the index can be rebuilt from it at any time.
package search

import (
	"github.com/folioapp/folio-server/internal/domain"
)

// BookDocument is the indexed projection of a catalog book.
type BookDocument struct {
	ID           string
	Title        string
	Authors      []string
	Subjects     []string
	Languages    []string
	Downloadable bool
	Complete     bool
	Rating       float64
	Year         int

	CreatedAt int64 // Unix millis
}

// NewBookDocument projects a catalog book into its index document.
func NewBookDocument(b *domain.CatalogBook) *BookDocument {
	return &BookDocument{
		ID:           b.ID,
		Title:        b.Title,
		Authors:      b.Author,
		Subjects:     b.Subject,
		Languages:    b.Language,
		Downloadable: b.Link != nil && b.Link.DownloadURL != "",
		Complete:     b.Complete,
		Rating:       b.Rating,
		Year:         b.PublishedYear,
		CreatedAt:    b.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
// Bleve would otherwise use the capitalized Go field names.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"title":        d.Title,
		"downloadable": d.Downloadable,
		"complete":     d.Complete,
		"rating":       d.Rating,
		"created_at":   d.CreatedAt,
	}

	if len(d.Authors) > 0 {
		m["author"] = d.Authors
	}
	if len(d.Subjects) > 0 {
		m["subject"] = d.Subjects
	}
	if len(d.Languages) > 0 {
		m["language"] = d.Languages
	}
	if d.Year > 0 {
		m["year"] = d.Year
	}

	return m
}
