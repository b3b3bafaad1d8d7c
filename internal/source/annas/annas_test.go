package annas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/source"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr := source.NewTransport(source.TransportOptions{Timeout: time.Second, DefaultRPS: -1})
	return New(tr, server.URL, "test-key")
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-5, 10},
		{3, 10},
		{10, 10},
		{57, 57},
		{200, 200},
		{1000, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "limit %d", tt.in)
	}
}

func TestSearchParams(t *testing.T) {
	p := searchParams(source.Query{Title: "Dune", Limit: 500, Language: "en"}, 3)

	assert.Equal(t, "Dune", p.Get("q"))
	assert.Equal(t, "200", p.Get("limit"))
	assert.Equal(t, "400", p.Get("skip"))
	assert.Equal(t, "en", p.Get("lang"))
}

func TestFetchBooks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.NotEmpty(t, r.Header.Get("X-RapidAPI-Host"))
		_, _ = w.Write([]byte(`{"total": 1, "books": [{
			"md5": "abc123", "title": "Dune", "author": "Frank Herbert",
			"format": "EPUB", "size": "2.3MB", "year": "1965", "genre": "Science Fiction"
		}]}`))
	})

	res, err := client.FetchBooks(context.Background(), source.Query{Title: "Dune"}, 1)
	require.NoError(t, err)
	require.Len(t, res.Books, 1)

	book := res.Books[0].(*Book)
	assert.Equal(t, "epub", book.Format)
	assert.Equal(t, 1965, book.Year)
	assert.Equal(t, []string{"Frank Herbert"}, book.Summary().Authors)
	assert.Equal(t, []string{"Science Fiction"}, book.Summary().Subjects)
}

func TestFetchBooks_InvalidShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total": 4}`))
	})

	_, err := client.FetchBooks(context.Background(), source.Query{Title: "x"}, 1)
	assert.ErrorIs(t, err, source.ErrInvalidResponse)
}

func TestFindDownload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"total": 2, "books": [
				{"md5": "first", "title": "Frankenstein", "format": "epub", "size": "1.1MB"},
				{"md5": "second", "title": "Frankenstein", "format": "pdf", "size": "9MB"}
			]}`))
		case "/download":
			assert.Equal(t, "first", r.URL.Query().Get("md5"))
			_, _ = w.Write([]byte(`["https://mirror.example/first.epub", " "]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	info, err := client.FindDownload(context.Background(), "Frankenstein")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, []string{"https://mirror.example/first.epub"}, info.URLs)
	assert.Equal(t, "epub", info.Format)
	require.NotNil(t, info.Size)
	assert.Equal(t, domain.SizeMB, info.Size.Metric)
	assert.InDelta(t, 1.1, info.Size.Value, 1e-9)
}

func TestFindDownload_FormatFromMirrorURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"total": 1, "books": [{"md5": "first", "title": "Frankenstein", "format": ""}]}`))
		case "/download":
			_, _ = w.Write([]byte(`["https://mirror.example/get/first", "https://mirror.example/first.mobi"]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	info, err := client.FindDownload(context.Background(), "Frankenstein")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "mobi", info.Format)
	assert.Equal(t, "https://mirror.example/get/first", info.URLs[0])
}

func TestFindDownload_UnknownFormatIsSkipped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"total": 1, "books": [{"md5": "first", "title": "Frankenstein"}]}`))
		case "/download":
			_, _ = w.Write([]byte(`["https://mirror.example/get/first"]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	info, err := client.FindDownload(context.Background(), "Frankenstein")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestFindDownload_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total": 0, "books": []}`))
	})

	info, err := client.FindDownload(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestSplitAuthors(t *testing.T) {
	assert.Equal(t, []string{"Neil Gaiman", "Terry Pratchett"}, splitAuthors("Neil Gaiman & Terry Pratchett"))
	assert.Equal(t, []string{"A", "B"}, splitAuthors("A; B;"))
}
