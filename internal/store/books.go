package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
)

const bookPrefix = "book:"

// Namespaces of the external index. They match the source names so callers
// can pass a source directly.
const (
	ExternalISBN         = "isbn"
	ExternalGutenberg    = "gutenberg"
	ExternalGoodreads    = "goodreads"
	ExternalAnnasArchive = "annas-archive"
)

func externalKeys(b *domain.CatalogBook) []string {
	keys := make([]string, 0, 1+len(b.Meta.GutenbergIDs)+len(b.Meta.GoodreadsIDs)+len(b.Meta.AnnasArchiveIDs))
	if b.Meta.ISBN != "" {
		keys = append(keys, ExternalISBN+":"+b.Meta.ISBN)
	}
	for _, id := range b.Meta.GutenbergIDs {
		keys = append(keys, ExternalGutenberg+":"+id)
	}
	for _, id := range b.Meta.GoodreadsIDs {
		keys = append(keys, ExternalGoodreads+":"+id)
	}
	for _, id := range b.Meta.AnnasArchiveIDs {
		keys = append(keys, ExternalAnnasArchive+":"+id)
	}
	return keys
}

// CreateBook persists a new catalog record. Timestamps are set when zero and
// Complete is derived from the link.
// Returns ErrAlreadyExists if the id, ISBN or a foreign id is already taken.
func (s *Store) CreateBook(ctx context.Context, book *domain.CatalogBook) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
	book.SyncComplete()

	if err := s.books.Create(ctx, book.ID, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.Bool("complete", book.Complete),
		)
	}

	s.indexBook(ctx, book)
	return nil
}

// GetBook retrieves a catalog record by id.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.CatalogBook, error) {
	return s.books.Get(ctx, id)
}

// GetBooksByIDs returns the records for ids in the order given. Unknown ids
// are skipped.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.CatalogBook, error) {
	books := make([]*domain.CatalogBook, 0, len(ids))
	for _, id := range ids {
		book, err := s.books.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get book %s: %w", id, err)
		}
		books = append(books, book)
	}
	return books, nil
}

// GetBookByExternalID finds a record by a foreign identifier, e.g.
// (ExternalGutenberg, "84").
func (s *Store) GetBookByExternalID(ctx context.Context, namespace, id string) (*domain.CatalogBook, error) {
	return s.books.GetByIndex(ctx, "external", namespace+":"+id)
}

// UpdateBook applies a partial update. Link fields are only ever filled in,
// never cleared, foreign ids are merged, and Complete is recomputed. An
// explicit Complete that disagrees with the resulting link is rejected.
func (s *Store) UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.CatalogBook, error) {
	book, err := s.books.Mutate(ctx, id, func(b *domain.CatalogBook) error {
		if update.Link != nil {
			b.Link = mergeLink(b.Link, update.Link)
		}
		if update.Meta != nil {
			b.Meta = mergeMeta(b.Meta, *update.Meta)
		}
		b.SyncComplete()
		if update.Complete != nil && *update.Complete != b.Complete {
			return ErrInvalidInput.WithMessage("complete does not match link fields")
		}
		b.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.indexBook(ctx, book)
	return book, nil
}

// QueryBooks returns every record matching filter, in key order.
func (s *Store) QueryBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.CatalogBook, error) {
	var books []*domain.CatalogBook
	for book, err := range s.books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("query books: %w", err)
		}
		if filter.Matches(book) {
			books = append(books, book)
		}
	}
	return books, nil
}

// AllBooks returns the whole catalog.
func (s *Store) AllBooks(ctx context.Context) ([]*domain.CatalogBook, error) {
	return s.QueryBooks(ctx, domain.BookFilter{})
}

func mergeLink(current, update *domain.Link) *domain.Link {
	merged := current.Clone()
	if merged == nil {
		merged = &domain.Link{}
	}
	if update.DownloadURL != "" {
		merged.DownloadURL = update.DownloadURL
	}
	if update.ReadURL != "" {
		merged.ReadURL = update.ReadURL
	}
	if update.BuyURL != "" {
		merged.BuyURL = update.BuyURL
	}
	if update.Format != "" {
		merged.Format = update.Format
	}
	if update.Size != nil {
		size := *update.Size
		merged.Size = &size
	}
	return merged
}

func mergeMeta(current, update domain.BookMeta) domain.BookMeta {
	if current.ISBN == "" {
		current.ISBN = update.ISBN
	}
	current.GutenbergIDs = union(current.GutenbergIDs, update.GutenbergIDs)
	current.GoodreadsIDs = union(current.GoodreadsIDs, update.GoodreadsIDs)
	current.AnnasArchiveIDs = union(current.AnnasArchiveIDs, update.AnnasArchiveIDs)
	current.AmazonIDs = union(current.AmazonIDs, update.AmazonIDs)
	return current
}

func union(a, b []string) []string {
	for _, v := range b {
		if v != "" && !slices.Contains(a, v) {
			a = append(a, v)
		}
	}
	return a
}
