package bestbooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/source"
)

const duneJSON = `{
	"id": "dune-1965",
	"title": "Dune",
	"authors": ["Frank Herbert"],
	"genres": ["science fiction", "classics"],
	"rating": 4.27,
	"ratingsCount": 1400000,
	"year": 1965,
	"isbn": "978-0-441-17271-9",
	"language": "English",
	"descriptionHtml": "<p>Set on the desert planet <em>Arrakis</em>.</p>"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr := source.NewTransport(source.TransportOptions{Timeout: time.Second, DefaultRPS: -1})
	return New(tr, server.URL, "token")
}

func TestFetchBooks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"total": 1, "page": 1, "books": [` + duneJSON + `]}`))
	})

	res, err := client.FetchBooks(context.Background(), source.Query{Text: "dune"}, 1)
	require.NoError(t, err)
	require.Len(t, res.Books, 1)

	book := res.Books[0].(*Book)
	assert.Equal(t, "Set on the desert planet *Arrakis*.", book.Description)

	sum := book.Summary()
	assert.Equal(t, "9780441172719", sum.ISBN)
	assert.Equal(t, []string{"en"}, sum.Languages)
	assert.Equal(t, []string{"science fiction", "classics"}, sum.Subjects)
}

func TestFetchBooks_InvalidShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing books", `{"total": 1}`},
		{"book without title", `{"total": 1, "books": [{"id": "x"}]}`},
		{"rating out of range", `{"total": 1, "books": [{"id": "x", "title": "X", "rating": 9}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchBooks(context.Background(), source.Query{}, 1)
			assert.ErrorIs(t, err, source.ErrInvalidResponse)
		})
	}
}

func TestSearchByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/dune-1965", r.URL.Path)
		_, _ = w.Write([]byte(duneJSON))
	})

	book, err := client.SearchByID(context.Background(), "dune-1965")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Summary().Title)

	_, err = client.SearchByID(context.Background(), "../etc")
	assert.ErrorIs(t, err, source.ErrBadRequest)
}
