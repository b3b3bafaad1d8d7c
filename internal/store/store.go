// Package store persists the catalog, users and their interactions in Badger.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/folioapp/folio-server/internal/domain"
)

// SearchIndexer keeps the search index in sync with catalog writes.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.CatalogBook) error
}

// NoopSearchIndexer is a SearchIndexer that does nothing, for tests and tools.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.CatalogBook) error { return nil }

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Set via SetSearchIndexer after creation; the index is built from the store.
	searchIndexer SearchIndexer

	books *Entity[domain.CatalogBook]
	users *Entity[domain.User]
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:            db,
		logger:        logger,
		searchIndexer: NoopSearchIndexer{},
	}
	s.initBooks()
	s.initUsers()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the indexer notified after catalog writes.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NoopSearchIndexer{}
	}
	s.searchIndexer = indexer
}

// initBooks indexes books by their foreign identifiers so imports can
// detect records that already exist.
func (s *Store) initBooks() {
	s.books = NewEntity[domain.CatalogBook](s, bookPrefix).
		WithIndex("external", externalKeys)
}

func (s *Store) initUsers() {
	s.users = NewEntity[domain.User](s, userPrefix)
}

func (s *Store) indexBook(ctx context.Context, book *domain.CatalogBook) {
	if err := s.searchIndexer.IndexBook(ctx, book); err != nil && s.logger != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}
