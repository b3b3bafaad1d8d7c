package providers

import (
	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/recommend"
	"github.com/folioapp/folio-server/internal/service"
	"github.com/folioapp/folio-server/internal/source"
	"github.com/folioapp/folio-server/internal/validation"
)

// ProvideClassifier provides the subject-to-genre classifier.
func ProvideClassifier(i do.Injector) (*genre.Classifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return genre.NewClassifier(genre.Default(), cfg.Genre.MinScore), nil
}

// SessionsHandle wraps recommendation sessions with shutdown capability.
type SessionsHandle struct {
	*recommend.Sessions
}

// Shutdown implements do.Shutdownable.
func (h *SessionsHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideSessions provides the per-reader recommendation engine cache.
func ProvideSessions(i do.Injector) (*SessionsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tables := do.MustInvoke[*SimilarityTablesHandle](i)
	classifier := do.MustInvoke[*genre.Classifier](i)

	sessions, err := recommend.NewSessions(storeHandle.Store, storeHandle.Store, tables.TableStore, classifier,
		recommend.SessionsConfig{
			TTL:              cfg.Recommend.EngineTTL,
			DefaultLanguages: cfg.Recommend.DefaultLanguages,
			PerBookLimit:     cfg.Recommend.PerBookLimit,
		}, log.Logger)
	if err != nil {
		return nil, err
	}
	return &SessionsHandle{Sessions: sessions}, nil
}

// ProvideBookManager provides the book service.
func ProvideBookManager(i do.Injector) (*service.BookManager, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	registry := do.MustInvoke[source.Registry](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookManager(storeHandle.Store, registry, indexHandle.SearchIndex, v, log.Logger), nil
}

// ProvideGenreService provides the genre service.
func ProvideGenreService(i do.Injector) (*service.GenreService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	classifier := do.MustInvoke[*genre.Classifier](i)
	return service.NewGenreService(storeHandle.Store, classifier), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*SessionsHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewUserService(storeHandle.Store, sessions.Sessions, v, log.Logger), nil
}

// ProvideRecommendationService provides the recommendation service and
// drops cached engines whenever the catalog changes.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	sessions := do.MustInvoke[*SessionsHandle](i)
	books := do.MustInvoke[*service.BookManager](i)

	svc := service.NewRecommendationService(sessions.Sessions)
	books.OnCatalogChange(svc.Refresh)
	return svc, nil
}
