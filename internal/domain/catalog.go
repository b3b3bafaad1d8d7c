// Package domain contains the catalog entities shared by the store, the
// source adapters and the recommendation pipeline.
package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SizeMetric is the unit of a download size.
type SizeMetric string

// Supported size units.
const (
	SizeB  SizeMetric = "B"
	SizeKB SizeMetric = "KB"
	SizeMB SizeMetric = "MB"
	SizeGB SizeMetric = "GB"
)

// Valid reports whether m is a known unit.
func (m SizeMetric) Valid() bool {
	switch m {
	case SizeB, SizeKB, SizeMB, SizeGB:
		return true
	}
	return false
}

// Size is a file size as reported by a source, e.g. {2.3, MB}.
type Size struct {
	Value  float64    `json:"value"`
	Metric SizeMetric `json:"metric"`
}

// ParseSize reads strings such as "2.3MB", "512 kb" or "1.1 GB".
func ParseSize(raw string) (Size, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	idx := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if idx <= 0 {
		return Size{}, fmt.Errorf("parse size %q: missing value or unit", raw)
	}

	value, err := strconv.ParseFloat(s[:idx], 64)
	if err != nil {
		return Size{}, fmt.Errorf("parse size %q: %w", raw, err)
	}
	metric := SizeMetric(s[idx:])
	if !metric.Valid() {
		return Size{}, fmt.Errorf("parse size %q: unknown unit %q", raw, s[idx:])
	}
	return Size{Value: value, Metric: metric}, nil
}

// Link holds the access points for a catalog book. Fields are filled in
// incrementally and never cleared.
type Link struct {
	DownloadURL string `json:"downloadUrl,omitempty"`
	ReadURL     string `json:"readUrl,omitempty"`
	BuyURL      string `json:"buyUrl,omitempty"`
	Format      string `json:"format,omitempty"`
	Size        *Size  `json:"size,omitempty"`
}

// IsComplete reports whether every access point is known.
func (l *Link) IsComplete() bool {
	return l != nil && l.DownloadURL != "" && l.ReadURL != "" && l.BuyURL != "" && l.Format != ""
}

// Clone returns a deep copy, nil-safe.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	c := *l
	if l.Size != nil {
		size := *l.Size
		c.Size = &size
	}
	return &c
}

// BookMeta carries the identifiers a book has in external systems.
type BookMeta struct {
	ISBN            string   `json:"isbn,omitempty"`
	GutenbergIDs    []string `json:"gutenbergIds,omitempty"`
	GoodreadsIDs    []string `json:"goodreadsIds,omitempty"`
	AnnasArchiveIDs []string `json:"annasArchiveIds,omitempty"`
	AmazonIDs       []string `json:"amazonIds,omitempty"`
}

// CatalogBook is a persisted catalog record.
type CatalogBook struct {
	ID            string    `json:"id"`
	Meta          BookMeta  `json:"meta"`
	Title         string    `json:"title"`
	Author        []string  `json:"author"`
	Subject       []string  `json:"subject"`
	Rating        float64   `json:"rating"`
	PublishedYear int       `json:"publishedYear,omitempty"`
	Language      []string  `json:"language"`
	EbookAccess   bool      `json:"ebookAccess"`
	Link          *Link     `json:"link,omitempty"`
	Complete      bool      `json:"complete"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SyncComplete recomputes Complete from the link fields.
func (b *CatalogBook) SyncComplete() {
	b.Complete = b.Link.IsComplete()
}

// HasLanguage reports whether the book is available in any of langs.
// An empty langs matches every book.
func (b *CatalogBook) HasLanguage(langs []string) bool {
	if len(langs) == 0 {
		return true
	}
	for _, l := range b.Language {
		if slices.Contains(langs, l) {
			return true
		}
	}
	return false
}

// ClientBook is the shape returned to API consumers.
type ClientBook struct {
	ID            string   `json:"id"`
	ISBN          string   `json:"isbn,omitempty"`
	Title         string   `json:"title"`
	Author        []string `json:"author"`
	Subject       []string `json:"subject"`
	Rating        float64  `json:"rating"`
	PublishedYear int      `json:"publishedYear,omitempty"`
	Language      []string `json:"language"`
	EbookAccess   bool     `json:"ebookAccess"`
	Link          *Link    `json:"link,omitempty"`
	Complete      bool     `json:"complete"`
}

// ToClient maps a catalog record to its client representation.
func (b *CatalogBook) ToClient() ClientBook {
	return ClientBook{
		ID:            b.ID,
		ISBN:          b.Meta.ISBN,
		Title:         b.Title,
		Author:        b.Author,
		Subject:       b.Subject,
		Rating:        b.Rating,
		PublishedYear: b.PublishedYear,
		Language:      b.Language,
		EbookAccess:   b.EbookAccess,
		Link:          b.Link.Clone(),
		Complete:      b.Complete,
	}
}

// DownloadInfo describes where a book file can be fetched from.
type DownloadInfo struct {
	URLs   []string `json:"urls"`
	Format string   `json:"format"`
	Size   *Size    `json:"size,omitempty"`
}

// BookUpdate is a partial update. Nil fields are left untouched.
type BookUpdate struct {
	Link     *Link
	Complete *bool
	Meta     *BookMeta
}

// BookFilter narrows a catalog query. Zero fields match everything.
type BookFilter struct {
	Languages    []string
	Subject      string
	Downloadable *bool
	MinRating    float64
}

// Matches reports whether b satisfies the filter.
func (f BookFilter) Matches(b *CatalogBook) bool {
	if !b.HasLanguage(f.Languages) {
		return false
	}
	if f.Subject != "" && !slices.Contains(b.Subject, f.Subject) {
		return false
	}
	if f.Downloadable != nil && *f.Downloadable != (b.Link != nil && b.Link.DownloadURL != "") {
		return false
	}
	return b.Rating >= f.MinRating
}
