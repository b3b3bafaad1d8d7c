package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(retries int) *Transport {
	return NewTransport(TransportOptions{
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		DefaultRPS:   -1,
	})
}

func TestTransport_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "Folio/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"title":"Frankenstein"}`))
	}))
	defer server.Close()

	var out struct {
		Title string `json:"title"`
	}
	err := newTestTransport(0).GetJSON(context.Background(), Gutenberg, server.URL,
		http.Header{"X-Api-Key": []string{"secret"}}, &out)

	require.NoError(t, err)
	assert.Equal(t, "Frankenstein", out.Title)
}

func TestTransport_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestTransport(0).Get(context.Background(), OpenLibrary, server.URL, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransport_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	body, err := newTestTransport(2).Get(context.Background(), Goodreads, server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTransport_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestTransport(1).Get(context.Background(), Goodreads, server.URL, nil)

	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTransport_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": "not-a-list"`))
	}))
	defer server.Close()

	var out struct {
		Results []string `json:"results"`
	}
	err := newTestTransport(0).GetJSON(context.Background(), Gutenberg, server.URL, nil, &out)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestTransport_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := newTestTransport(0)
	for range breakerFailures {
		_, err := tr.Get(context.Background(), AnnasArchive, server.URL, nil)
		require.ErrorIs(t, err, ErrServer)
	}

	_, err := tr.Get(context.Background(), AnnasArchive, server.URL, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(breakerFailures), calls.Load())

	// Other sources keep their own breaker.
	_, err = tr.Get(context.Background(), Gutenberg, server.URL, nil)
	assert.ErrorIs(t, err, ErrServer)
}

func TestTransport_NotFoundDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tr := newTestTransport(0)
	for range breakerFailures + 2 {
		_, err := tr.Get(context.Background(), Gutenberg, server.URL, nil)
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestBuildURL(t *testing.T) {
	got, err := BuildURL("https://gutendex.com/", "/books/84", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://gutendex.com/books/84", got)

	got, err = BuildURL("https://openlibrary.org", "search.json", url.Values{"q": {"frankenstein"}, "page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, "https://openlibrary.org/search.json?page=2&q=frankenstein", got)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://x.org/s?api_key=REDACTED&q=a", redact("https://x.org/s?api_key=123&q=a"))
}

func TestParse(t *testing.T) {
	got, err := Parse("Annas_Archive")
	require.NoError(t, err)
	assert.Equal(t, AnnasArchive, got)

	_, err = Parse("amazon")
	assert.Error(t, err)
}

func TestQuery_Terms(t *testing.T) {
	assert.Equal(t, "gothic Frankenstein Shelley", Query{Text: "gothic", Title: "Frankenstein", Author: " Shelley "}.Terms())
	assert.Empty(t, Query{}.Terms())
}

func TestAdapterError(t *testing.T) {
	err := WrapError(Gutenberg, "searchById", "84", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "gutenberg searchById [84]: source: not found", err.Error())
	assert.NoError(t, WrapError(Gutenberg, "fetch", "", nil))

	var ae *AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, Gutenberg, ae.Source)
}
