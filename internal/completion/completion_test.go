package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
)

func TestApply_FillsFromISBNWithoutDownload(t *testing.T) {
	meta := domain.BookMeta{ISBN: "0000000001"}

	link, changes := Apply(nil, meta, nil)

	require.NotNil(t, link)
	assert.Equal(t, "https://openlibrary.org/isbn/0000000001", link.ReadURL)
	assert.Equal(t, "https://www.amazon.com/dp/0000000001", link.BuyURL)
	assert.Empty(t, link.DownloadURL)
	assert.Equal(t, Changes{FieldReadURL, FieldBuyURL}, changes)
	assert.False(t, link.IsComplete())
}

func TestApply_CompletesWithDownload(t *testing.T) {
	meta := domain.BookMeta{ISBN: "0000000001"}
	dl := &domain.DownloadInfo{
		URLs:   []string{"https://www.gutenberg.org/ebooks/84.epub3.images"},
		Format: "application/epub+zip",
		Size:   &domain.Size{Value: 2.3, Metric: domain.SizeMB},
	}

	link, changes := Apply(&domain.Link{}, meta, dl)

	assert.True(t, link.IsComplete())
	assert.Equal(t, "application/epub+zip", link.Format)
	assert.Equal(t, Changes{FieldDownloadURL, FieldFormat, FieldSize, FieldReadURL, FieldBuyURL}, changes)
}

func TestApply_NeverOverwrites(t *testing.T) {
	orig := &domain.Link{
		DownloadURL: "https://example.org/a.pdf",
		ReadURL:     "https://example.org/read",
		Format:      "application/pdf",
	}
	dl := &domain.DownloadInfo{URLs: []string{"https://other.org/b.epub"}, Format: "application/epub+zip"}

	link, changes := Apply(orig, domain.BookMeta{ISBN: "123"}, dl)

	assert.Equal(t, "https://example.org/a.pdf", link.DownloadURL)
	assert.Equal(t, "https://example.org/read", link.ReadURL)
	assert.Equal(t, "application/pdf", link.Format)
	assert.Equal(t, Changes{FieldBuyURL}, changes)
	assert.Empty(t, orig.BuyURL, "input must not be mutated")
}

func TestApply_MonotonicAcrossCalls(t *testing.T) {
	meta := domain.BookMeta{ISBN: "42"}
	first, _ := Apply(nil, meta, nil)
	second, changes := Apply(first, domain.BookMeta{}, nil)

	assert.Equal(t, first, second)
	assert.True(t, changes.Empty())
}

func TestApply_BuyURLFallsBackToAmazonID(t *testing.T) {
	link, changes := Apply(nil, domain.BookMeta{AmazonIDs: []string{"B000FC1PJI"}}, nil)

	assert.Equal(t, "https://www.amazon.com/dp/B000FC1PJI", link.BuyURL)
	assert.Empty(t, link.ReadURL)
	assert.True(t, changes.Has(FieldBuyURL))
	assert.False(t, changes.Has(FieldReadURL))
}

func TestApply_IgnoresEmptyDownload(t *testing.T) {
	link, changes := Apply(nil, domain.BookMeta{}, &domain.DownloadInfo{Format: "application/pdf"})

	assert.Empty(t, link.DownloadURL)
	assert.Empty(t, link.Format)
	assert.True(t, changes.Empty())
}

func TestRankResources_Determinism(t *testing.T) {
	resources := []Resource{
		{URI: "https://g.org/84.txt", Type: "text/plain; charset=us-ascii"},
		{URI: "https://g.org/84.mobi", Type: "application/x-mobipocket-ebook"},
		{URI: "https://g.org/84.images", Type: "application/epub+zip; images"},
		{URI: "https://g.org/84.html", Type: "text/html"},
		{URI: "https://g.org/84.epub", Type: "application/epub+zip"},
		{URI: "https://g.org/84.rdf", Type: "application/rdf+xml"},
	}

	ranked := RankResources(resources, "epub")

	types := make([]string, 0, len(ranked))
	for _, r := range ranked {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{
		"application/epub+zip",
		"application/x-mobipocket-ebook",
		"application/rdf+xml",
		"text/html",
		"text/plain; charset=us-ascii",
	}, types)

	again := RankResources(resources, "epub")
	assert.Equal(t, ranked, again)
}

func TestRankResources_MobiPrefersMobiThenEpub(t *testing.T) {
	resources := []Resource{
		{URI: "e", Type: "application/epub+zip"},
		{URI: "m", Type: "application/x-mobipocket-ebook"},
		{URI: "p", Type: "application/pdf"},
	}

	ranked := RankResources(resources, "mobi")

	require.Len(t, ranked, 3)
	assert.Equal(t, "m", ranked[0].URI)
	assert.Equal(t, "e", ranked[1].URI)
}

func TestBestResource(t *testing.T) {
	assert.Nil(t, BestResource(nil, "epub"))
	assert.Nil(t, BestResource([]Resource{{URI: "x", Type: "image/jpeg; images"}}, "epub"))

	dl := BestResource([]Resource{
		{URI: "https://g.org/84.mobi", Type: "application/x-mobipocket-ebook"},
		{URI: "https://g.org/84.epub", Type: "application/epub+zip"},
	}, "")
	require.NotNil(t, dl)
	assert.Equal(t, []string{"https://g.org/84.epub"}, dl.URLs)
	assert.Equal(t, "application/epub+zip", dl.Format)
}

func TestApply_FormatFromDownloadURL(t *testing.T) {
	dl := &domain.DownloadInfo{URLs: []string{"https://mirror.test/get/frankenstein.EPUB?token=x"}}

	link, changes := Apply(nil, domain.BookMeta{ISBN: "1"}, dl)

	assert.Equal(t, "epub", link.Format)
	assert.True(t, changes.Has(FieldFormat))
	assert.True(t, link.IsComplete())
}

func TestApply_RepairsStoredLinkWithoutFormat(t *testing.T) {
	stored := &domain.Link{
		DownloadURL: "https://mirror.test/frankenstein.pdf",
		ReadURL:     "r",
		BuyURL:      "b",
	}
	require.False(t, NeedsDownload(stored))

	link, changes := Apply(stored, domain.BookMeta{}, nil)

	assert.Equal(t, "pdf", link.Format)
	assert.Equal(t, Changes{FieldFormat}, changes)
	assert.True(t, link.IsComplete())
}

func TestFormatFromURL(t *testing.T) {
	tests := map[string]string{
		"https://mirror.test/a.epub":          "epub",
		"https://mirror.test/a.PDF?x=1":       "pdf",
		"https://mirror.test/a.htm#chapter-1": "html",
		"https://mirror.test/get/abc123":      "",
		"https://mirror.test/84.epub3.images": "",
		"::not a url":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFromURL(in), "FormatFromURL(%q)", in)
	}
}

func TestNeedsDownload(t *testing.T) {
	assert.True(t, NeedsDownload(nil))
	assert.True(t, NeedsDownload(&domain.Link{ReadURL: "r"}))
	assert.False(t, NeedsDownload(&domain.Link{DownloadURL: "d"}))
}
