// Package di provides dependency injection configuration for the Folio server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/di/providers"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/service"
	"github.com/folioapp/folio-server/internal/source"
	"github.com/folioapp/folio-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSimilarityTables)

	// Sources
	do.Provide(injector, providers.ProvideTransport)
	do.Provide(injector, providers.ProvideSourceRegistry)

	// Recommendations
	do.Provide(injector, providers.ProvideClassifier)
	do.Provide(injector, providers.ProvideSessions)

	// Business services
	do.Provide(injector, providers.ProvideBookManager)
	do.Provide(injector, providers.ProvideGenreService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideRecommendationService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.SimilarityTablesHandle](injector)
	_ = do.MustInvoke[*source.Transport](injector)
	_ = do.MustInvoke[source.Registry](injector)
	_ = do.MustInvoke[*genre.Classifier](injector)
	_ = do.MustInvoke[*providers.SessionsHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.BookManager](injector)
	_ = do.MustInvoke[*service.GenreService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.RecommendationService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
