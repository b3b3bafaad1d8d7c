// Package recommend ranks popular books and turns a reader's interaction
// history into recommendations drawn from the similarity tables.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/metrics"
	"github.com/folioapp/folio-server/internal/similarity"
	"github.com/folioapp/folio-server/internal/store"
)

// DefaultPerBookLimit caps how many related books one interaction yields.
const DefaultPerBookLimit = 5

// Catalog is the part of the catalog store the engine reads.
type Catalog interface {
	GetBook(ctx context.Context, id string) (*domain.CatalogBook, error)
	GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.CatalogBook, error)
	QueryBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.CatalogBook, error)
}

// Engine serves one reader session. It holds the reader's languages and
// interaction history, and caches the sorted popular list between pages.
type Engine struct {
	catalog      Catalog
	tables       similarity.TableStore
	classifier   *genre.Classifier
	logger       *slog.Logger
	languages    []string
	interactions []domain.Interaction
	perBookLimit int
	shuffle      func([]string)

	mu      sync.Mutex
	popular []*domain.CatalogBook
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLanguages overrides the preferred languages.
func WithLanguages(langs []string) EngineOption {
	return func(e *Engine) {
		if len(langs) > 0 {
			e.languages = slices.Clone(langs)
		}
	}
}

// WithInteractions sets the history FormRecommendations works from.
func WithInteractions(in []domain.Interaction) EngineOption {
	return func(e *Engine) { e.interactions = slices.Clone(in) }
}

// WithPerBookLimit sets how many related books each interaction yields.
func WithPerBookLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.perBookLimit = n
		}
	}
}

// WithShuffle replaces the shuffle applied to candidates.
func WithShuffle(fn func([]string)) EngineOption {
	return func(e *Engine) { e.shuffle = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine. Languages default to domain.DefaultLanguages.
func NewEngine(catalog Catalog, tables similarity.TableStore, classifier *genre.Classifier, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:      catalog,
		tables:       tables,
		classifier:   classifier,
		logger:       logger.Discard(),
		languages:    domain.DefaultLanguages,
		perBookLimit: DefaultPerBookLimit,
		shuffle: func(ids []string) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Languages returns the engine's preferred languages.
func (e *Engine) Languages() []string {
	return e.languages
}

// PopularBooks returns one page (1-based) of the catalog filtered to the
// preferred languages and sorted by rating, highest first. The sorted list
// is built on the first call and reused for later pages.
func (e *Engine) PopularBooks(ctx context.Context, page, limit int) ([]*domain.CatalogBook, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return []*domain.CatalogBook{}, nil
	}

	popular, err := e.popularList(ctx)
	if err != nil {
		return nil, err
	}

	start := (page - 1) * limit
	if start >= len(popular) {
		return []*domain.CatalogBook{}, nil
	}
	end := min(start+limit, len(popular))
	return popular[start:end], nil
}

func (e *Engine) popularList(ctx context.Context) ([]*domain.CatalogBook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.popular != nil {
		return e.popular, nil
	}

	books, err := e.catalog.QueryBooks(ctx, domain.BookFilter{Languages: e.languages})
	if err != nil {
		return nil, fmt.Errorf("query popular books: %w", err)
	}
	slices.SortStableFunc(books, func(a, b *domain.CatalogBook) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	if books == nil {
		books = []*domain.CatalogBook{}
	}

	e.popular = books
	return books, nil
}

// RecommendedIDs maps each interacted book to up to perBookLimit related
// book ids from its genre's similarity table, strongest first.
// Interactions are visited most recent first, ties broken by priority.
// Books that no longer exist are skipped.
func (e *Engine) RecommendedIDs(ctx context.Context, interactions []domain.Interaction, perBookLimit int) (map[string][]string, error) {
	if perBookLimit < 1 {
		perBookLimit = DefaultPerBookLimit
	}

	ordered := slices.Clone(interactions)
	slices.SortStableFunc(ordered, func(a, b domain.Interaction) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.Type.Priority(), a.Type.Priority())
	})

	out := make(map[string][]string)
	for _, in := range ordered {
		if _, done := out[in.BookID]; done {
			continue
		}

		book, err := e.catalog.GetBook(ctx, in.BookID)
		if errors.Is(err, store.ErrNotFound) {
			e.logger.Debug("interacted book missing", "book_id", in.BookID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get book %s: %w", in.BookID, err)
		}

		g := similarity.GenreOf(e.classifier, book.Subject)
		row, err := e.tables.LoadAllForGenre(ctx, g, book.ID)
		if err != nil {
			return nil, fmt.Errorf("load similarity for %s: %w", book.ID, err)
		}

		ranked := similarity.Ranked(row)
		ranked = ranked[:min(perBookLimit, len(ranked))]
		ids := make([]string, len(ranked))
		for i, r := range ranked {
			ids[i] = r.ID
		}
		out[book.ID] = ids
	}
	return out, nil
}

// FormRecommendations flattens the related ids of the session's history,
// shuffles them, and returns up to limit distinct catalog books.
func (e *Engine) FormRecommendations(ctx context.Context, limit int) ([]*domain.CatalogBook, error) {
	related, err := e.RecommendedIDs(ctx, e.interactions, e.perBookLimit)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, list := range related {
		ids = append(ids, list...)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	e.shuffle(ids)

	books, err := e.catalog.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch recommended books: %w", err)
	}

	if limit < 1 || limit > len(books) {
		limit = len(books)
	}

	seen := make(map[string]struct{}, len(books))
	out := make([]*domain.CatalogBook, 0, limit)
	for _, b := range books {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}

	metrics.Recommendations.Add(float64(len(out)))
	return out, nil
}
