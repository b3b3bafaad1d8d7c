package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

type recordingIndexer struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingIndexer) IndexBook(_ context.Context, book *domain.CatalogBook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, book.ID)
	return nil
}

func frankenstein() *domain.CatalogBook {
	return &domain.CatalogBook{
		ID:       "book-frankenstein",
		Title:    "Frankenstein",
		Author:   []string{"Mary Shelley"},
		Subject:  []string{"horror", "science fiction"},
		Rating:   4.1,
		Language: []string{"en"},
		Meta: domain.BookMeta{
			ISBN:         "9780486282114",
			GutenbergIDs: []string{"84"},
		},
	}
}

func TestCreateBook(t *testing.T) {
	s := setupTestStore(t)
	indexer := &recordingIndexer{}
	s.SetSearchIndexer(indexer)
	ctx := context.Background()

	book := frankenstein()
	require.NoError(t, s.CreateBook(ctx, book))
	assert.False(t, book.CreatedAt.IsZero())
	assert.False(t, book.Complete)

	got, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Frankenstein", got.Title)
	assert.Equal(t, []string{"84"}, got.Meta.GutenbergIDs)
	assert.Equal(t, []string{book.ID}, indexer.ids)
}

func TestCreateBook_DuplicateForeignID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, frankenstein()))

	dup := frankenstein()
	dup.ID = "book-other"
	dup.Meta.ISBN = ""
	err := s.CreateBook(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateBook_DerivesComplete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	book := frankenstein()
	book.Complete = true
	require.NoError(t, s.CreateBook(ctx, book))
	assert.False(t, book.Complete, "an empty link can never be complete")
}

func TestGetBookByExternalID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, frankenstein()))

	got, err := s.GetBookByExternalID(ctx, store.ExternalGutenberg, "84")
	require.NoError(t, err)
	assert.Equal(t, "book-frankenstein", got.ID)

	got, err = s.GetBookByExternalID(ctx, store.ExternalISBN, "9780486282114")
	require.NoError(t, err)
	assert.Equal(t, "book-frankenstein", got.ID)

	_, err = s.GetBookByExternalID(ctx, store.ExternalGoodreads, "84")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetBooksByIDs_SkipsUnknown(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := frankenstein()
	b := &domain.CatalogBook{ID: "book-dracula", Title: "Dracula", Language: []string{"en"}}
	require.NoError(t, s.CreateBook(ctx, a))
	require.NoError(t, s.CreateBook(ctx, b))

	books, err := s.GetBooksByIDs(ctx, []string{"book-dracula", "book-missing", "book-frankenstein"})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "book-dracula", books[0].ID)
	assert.Equal(t, "book-frankenstein", books[1].ID)
}

func TestUpdateBook_FillsLinkWithoutClearing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, frankenstein()))

	_, err := s.UpdateBook(ctx, "book-frankenstein", domain.BookUpdate{
		Link: &domain.Link{DownloadURL: "https://example.org/84.epub", Format: "application/epub+zip"},
	})
	require.NoError(t, err)

	got, err := s.UpdateBook(ctx, "book-frankenstein", domain.BookUpdate{
		Link: &domain.Link{ReadURL: "https://openlibrary.org/isbn/9780486282114"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/84.epub", got.Link.DownloadURL)
	assert.Equal(t, "https://openlibrary.org/isbn/9780486282114", got.Link.ReadURL)
	assert.False(t, got.Complete)

	complete := true
	got, err = s.UpdateBook(ctx, "book-frankenstein", domain.BookUpdate{
		Link:     &domain.Link{BuyURL: "https://www.amazon.com/dp/9780486282114"},
		Complete: &complete,
	})
	require.NoError(t, err)
	assert.True(t, got.Complete)
}

func TestUpdateBook_RejectsInconsistentComplete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, frankenstein()))

	complete := true
	_, err := s.UpdateBook(ctx, "book-frankenstein", domain.BookUpdate{Complete: &complete})
	require.ErrorIs(t, err, store.ErrInvalidInput)

	got, err := s.GetBook(ctx, "book-frankenstein")
	require.NoError(t, err)
	assert.False(t, got.Complete)
}

func TestUpdateBook_MergesMeta(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, frankenstein()))

	got, err := s.UpdateBook(ctx, "book-frankenstein", domain.BookUpdate{
		Meta: &domain.BookMeta{ISBN: "0000000000", GutenbergIDs: []string{"84", "41445"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "9780486282114", got.Meta.ISBN, "existing ISBN is kept")
	assert.Equal(t, []string{"84", "41445"}, got.Meta.GutenbergIDs)

	byNew, err := s.GetBookByExternalID(ctx, store.ExternalGutenberg, "41445")
	require.NoError(t, err)
	assert.Equal(t, "book-frankenstein", byNew.ID)
}

func TestUpdateBook_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpdateBook(context.Background(), "book-missing", domain.BookUpdate{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestQueryBooks(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	books := []*domain.CatalogBook{
		{ID: "book-1", Title: "One", Language: []string{"en"}, Subject: []string{"horror"}, Rating: 4.5,
			Link: &domain.Link{DownloadURL: "https://example.org/1"}},
		{ID: "book-2", Title: "Two", Language: []string{"fr"}, Subject: []string{"horror"}, Rating: 3.9},
		{ID: "book-3", Title: "Three", Language: []string{"en"}, Subject: []string{"poetry"}, Rating: 2.0},
	}
	for _, b := range books {
		require.NoError(t, s.CreateBook(ctx, b))
	}

	all, err := s.AllBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	en, err := s.QueryBooks(ctx, domain.BookFilter{Languages: []string{"en"}})
	require.NoError(t, err)
	assert.Len(t, en, 2)

	downloadable := true
	dl, err := s.QueryBooks(ctx, domain.BookFilter{Downloadable: &downloadable})
	require.NoError(t, err)
	require.Len(t, dl, 1)
	assert.Equal(t, "book-1", dl[0].ID)

	horror, err := s.QueryBooks(ctx, domain.BookFilter{Subject: "horror", MinRating: 4})
	require.NoError(t, err)
	require.Len(t, horror, 1)
	assert.Equal(t, "book-1", horror[0].ID)
}
