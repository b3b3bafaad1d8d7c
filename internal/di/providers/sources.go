package providers

import (
	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/source"
	"github.com/folioapp/folio-server/internal/source/annas"
	"github.com/folioapp/folio-server/internal/source/bestbooks"
	"github.com/folioapp/folio-server/internal/source/goodreads"
	"github.com/folioapp/folio-server/internal/source/gutenberg"
	"github.com/folioapp/folio-server/internal/source/openlibrary"
)

// ProvideTransport provides the shared outbound HTTP transport with
// per-source rate limits.
func ProvideTransport(i do.Injector) (*source.Transport, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	t := source.NewTransport(source.TransportOptions{
		Timeout:    cfg.Sources.Timeout,
		MaxRetries: cfg.Sources.MaxRetries,
		Logger:     log.Logger,
	})
	for src, sc := range sourceConfigs(cfg.Sources) {
		if sc.RPS > 0 {
			t.SetRate(src, sc.RPS)
		}
	}
	return t, nil
}

// ProvideSourceRegistry provides adapters for every enabled source.
func ProvideSourceRegistry(i do.Injector) (source.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	t := do.MustInvoke[*source.Transport](i)

	var adapters []source.Adapter
	s := cfg.Sources
	if s.Gutenberg.Enabled {
		adapters = append(adapters, gutenberg.New(t, s.Gutenberg.BaseURL))
	}
	if s.AnnasArchive.Enabled {
		adapters = append(adapters, annas.New(t, s.AnnasArchive.BaseURL, s.AnnasArchive.APIKey))
	}
	if s.OpenLibrary.Enabled {
		adapters = append(adapters, openlibrary.New(t, s.OpenLibrary.BaseURL))
	}
	if s.Goodreads.Enabled {
		adapters = append(adapters, goodreads.New(t, s.Goodreads.BaseURL))
	}
	if s.BestBooks.Enabled {
		adapters = append(adapters, bestbooks.New(t, s.BestBooks.BaseURL, s.BestBooks.APIKey))
	}

	registry := source.NewRegistry(adapters...)
	log.Info("Sources registered", "count", len(registry))
	return registry, nil
}

func sourceConfigs(s config.SourcesConfig) map[source.Source]config.SourceConfig {
	return map[source.Source]config.SourceConfig{
		source.Gutenberg:    s.Gutenberg,
		source.AnnasArchive: s.AnnasArchive,
		source.OpenLibrary:  s.OpenLibrary,
		source.Goodreads:    s.Goodreads,
		source.BestBooks:    s.BestBooks,
	}
}
