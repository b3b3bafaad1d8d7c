package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/logger"
)

// SearchIndex wraps a Bleve index over catalog books.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion changes whenever buildIndexMapping does. An index written
// with another version is dropped and recreated on open.
const mappingVersion = "1"

// NewSearchIndex opens the index under opts.DataPath, creating it when it
// is missing, unreadable or built with an older mapping. A recreated index is
// empty; callers repopulate it with Rebuild.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	indexPath := filepath.Join(opts.DataPath, "catalog.bleve")
	versionPath := filepath.Join(opts.DataPath, "catalog.version")

	if _, err := os.Stat(indexPath); err == nil {
		version, _ := os.ReadFile(versionPath)
		if string(version) == mappingVersion {
			index, err := bleve.Open(indexPath)
			if err == nil {
				log.Info("opened existing search index", "path", indexPath)
				return &SearchIndex{index: index, path: indexPath, logger: log}, nil
			}
			log.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
		} else {
			log.Info("search index mapping version changed, will rebuild",
				"old_version", string(version),
				"new_version", mappingVersion,
			)
		}
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	index, err := bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
		log.Warn("failed to write search version file", "error", err)
	}
	log.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)

	return &SearchIndex{index: index, path: indexPath, logger: log}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBook indexes or replaces a single book. It satisfies
// store.SearchIndexer.
func (s *SearchIndex) IndexBook(_ context.Context, book *domain.CatalogBook) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(book.ID, NewBookDocument(book).ToMap())
}

// IndexBooks indexes books in batches of 500 to bound memory during a
// full reindex.
func (s *SearchIndex) IndexBooks(ctx context.Context, books []*domain.CatalogBook) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(books); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+batchSize, len(books))
		batch := s.index.NewBatch()
		for _, book := range books[i:end] {
			if err := batch.Index(book.ID, NewBookDocument(book).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", book.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and indexes books from scratch. It holds an
// exclusive lock while the fresh index is created.
func (s *SearchIndex) Rebuild(ctx context.Context, books []*domain.CatalogBook) error {
	s.mu.Lock()
	if err := s.index.Close(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("remove index: %w", err)
	}
	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index
	s.mu.Unlock()

	if err := s.IndexBooks(ctx, books); err != nil {
		return err
	}
	s.logger.Info("rebuilt search index", "path", s.path, "books", len(books))
	return nil
}
