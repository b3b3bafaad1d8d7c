// Package completion decides how a catalog book's link gets filled in.
//
// Everything here is pure: the book manager performs the network calls and
// hands their results to Apply, which returns the new link together with
// the set of fields it changed.
package completion

import (
	"cmp"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/folioapp/folio-server/internal/domain"
)

// DefaultFormat is used when a lookup does not ask for a specific format.
const DefaultFormat = "epub"

const (
	openLibraryISBNURL = "https://openlibrary.org/isbn/"
	amazonProductURL   = "https://www.amazon.com/dp/"
)

// formatTypes maps a requested format to the MIME fragment identifying it.
var formatTypes = map[string]string{
	"epub": "epub+zip",
	"mobi": "x-mobipocket-ebook",
	"pdf":  "pdf",
	"txt":  "text/plain",
	"html": "text/html",
}

// extFormats maps download file extensions to format names.
var extFormats = map[string]string{
	".epub": "epub",
	".mobi": "mobi",
	".azw3": "azw3",
	".pdf":  "pdf",
	".txt":  "txt",
	".html": "html",
	".htm":  "html",
	".djvu": "djvu",
	".fb2":  "fb2",
	".cbz":  "cbz",
	".cbr":  "cbr",
}

// FormatFromURL guesses the format of a download from the extension of its
// URL path. It returns "" for unknown extensions.
func FormatFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return extFormats[strings.ToLower(path.Ext(u.Path))]
}

// alternates pairs formats that can stand in for each other.
var alternates = map[string]string{
	"epub": "mobi",
	"mobi": "epub",
}

// Field names reported in Changes.
const (
	FieldDownloadURL = "downloadUrl"
	FieldReadURL     = "readUrl"
	FieldBuyURL      = "buyUrl"
	FieldFormat      = "format"
	FieldSize        = "size"
)

// Changes lists the link fields Apply filled in, in a stable order.
type Changes []string

// Empty reports whether nothing changed.
func (c Changes) Empty() bool { return len(c) == 0 }

// Has reports whether field was changed.
func (c Changes) Has(field string) bool { return slices.Contains(c, field) }

// NeedsDownload reports whether a download source must be consulted.
func NeedsDownload(link *domain.Link) bool {
	return link == nil || link.DownloadURL == ""
}

// ReadURL builds the Open Library permalink for an ISBN.
func ReadURL(isbn string) string { return openLibraryISBNURL + isbn }

// BuyURL builds the Amazon product permalink for an ISBN or ASIN.
func BuyURL(isbn string) string { return amazonProductURL + isbn }

// Apply fills every missing field of link it can derive from meta and
// download. It never clears or overwrites a populated field. The input link
// is not modified; a nil link is treated as empty.
func Apply(link *domain.Link, meta domain.BookMeta, download *domain.DownloadInfo) (*domain.Link, Changes) {
	out := link.Clone()
	if out == nil {
		out = &domain.Link{}
	}
	var changes Changes

	if out.DownloadURL == "" && download != nil && len(download.URLs) > 0 && download.URLs[0] != "" {
		out.DownloadURL = download.URLs[0]
		changes = append(changes, FieldDownloadURL)

		if out.Format == "" {
			if format := cmp.Or(download.Format, FormatFromURL(out.DownloadURL)); format != "" {
				out.Format = format
				changes = append(changes, FieldFormat)
			}
		}
		if out.Size == nil && download.Size != nil {
			size := *download.Size
			out.Size = &size
			changes = append(changes, FieldSize)
		}
	}

	// A link stored without a format can still be recognized by its URL.
	if out.DownloadURL != "" && out.Format == "" && !changes.Has(FieldDownloadURL) {
		if format := FormatFromURL(out.DownloadURL); format != "" {
			out.Format = format
			changes = append(changes, FieldFormat)
		}
	}

	if out.ReadURL == "" && meta.ISBN != "" {
		out.ReadURL = ReadURL(meta.ISBN)
		changes = append(changes, FieldReadURL)
	}

	if out.BuyURL == "" {
		if key := buyKey(meta); key != "" {
			out.BuyURL = BuyURL(key)
			changes = append(changes, FieldBuyURL)
		}
	}

	return out, changes
}

// buyKey prefers the ISBN and falls back to a known Amazon identifier.
func buyKey(meta domain.BookMeta) string {
	if meta.ISBN != "" {
		return meta.ISBN
	}
	if len(meta.AmazonIDs) > 0 {
		return meta.AmazonIDs[0]
	}
	return ""
}

// Resource is one downloadable file offered by a source.
type Resource struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

const (
	rankOther = iota
	rankAlternate
	rankExact
)

func rank(r Resource, format string) int {
	if frag, ok := formatTypes[format]; ok && strings.Contains(r.Type, frag) {
		return rankExact
	}
	if alt, ok := alternates[format]; ok && strings.Contains(r.Type, formatTypes[alt]) {
		return rankAlternate
	}
	return rankOther
}

// RankResources drops illustration bundles (types ending in "images") and
// orders the rest: exact format first, then its alternate, then everything
// else; ties sort by ascending type string. The input is not modified.
func RankResources(resources []Resource, format string) []Resource {
	format = strings.ToLower(cmp.Or(format, DefaultFormat))

	out := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if r.URI == "" || strings.HasSuffix(r.Type, "images") {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b Resource) int {
		if c := cmp.Compare(rank(b, format), rank(a, format)); c != 0 {
			return c
		}
		return strings.Compare(a.Type, b.Type)
	})
	return out
}

// BestResource returns the top ranked resource as download info, or nil
// when nothing usable is offered.
func BestResource(resources []Resource, format string) *domain.DownloadInfo {
	ranked := RankResources(resources, format)
	if len(ranked) == 0 {
		return nil
	}
	return &domain.DownloadInfo{URLs: []string{ranked[0].URI}, Format: ranked[0].Type}
}
