package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/similarity"
	"github.com/folioapp/folio-server/internal/store"
	"github.com/folioapp/folio-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Catalog.StorePath()
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// SimilarityTablesHandle holds the configured similarity table backend.
type SimilarityTablesHandle struct {
	similarity.TableStore
	closer func() error
}

// Shutdown implements do.Shutdownable.
func (h *SimilarityTablesHandle) Shutdown() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

// ProvideSimilarityTables opens the similarity tables written by the batch job,
// either as JSON files or in a SQLite database under the similarity directory.
func ProvideSimilarityTables(i do.Injector) (*SimilarityTablesHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	tables, closer, err := OpenSimilarityTables(cfg.Similarity, log)
	if err != nil {
		return nil, err
	}
	return &SimilarityTablesHandle{TableStore: tables, closer: closer}, nil
}

// OpenSimilarityTables opens the table backend named by cfg.Backend. The
// returned closer is nil for the file backend.
func OpenSimilarityTables(cfg config.SimilarityConfig, log *logger.Logger) (similarity.TableStore, func() error, error) {
	if cfg.Backend == "sqlite" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create similarity dir: %w", err)
		}
		path := filepath.Join(cfg.Dir, "similarity.db")
		db, err := sqlite.Open(path, log.Logger)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Similarity tables opened", "backend", cfg.Backend, "path", path)
		return db, db.Close, nil
	}

	fs, err := similarity.NewFileStore(cfg.Dir)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Similarity tables opened", "backend", "file", "dir", cfg.Dir)
	return fs, nil, nil
}
