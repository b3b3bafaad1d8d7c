package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/metrics"
	"github.com/folioapp/folio-server/internal/similarity"
)

// DefaultSessionTTL bounds how long an engine and its popular list live.
const DefaultSessionTTL = 30 * time.Minute

// History provides a reader's profile and stored interactions.
type History interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListInteractions(ctx context.Context, userID string) ([]domain.Interaction, error)
}

// SessionsConfig configures Sessions.
type SessionsConfig struct {
	TTL              time.Duration
	DefaultLanguages []string
	PerBookLimit     int
	MaxSessions      int64
}

// Sessions hands out engines per reader, cached with a TTL.
type Sessions struct {
	catalog    Catalog
	history    History
	tables     similarity.TableStore
	classifier *genre.Classifier
	cfg        SessionsConfig
	logger     *slog.Logger

	cache *ristretto.Cache[string, *Engine]
	now   func() time.Time
}

// NewSessions creates the session cache.
func NewSessions(catalog Catalog, history History, tables similarity.TableStore, classifier *genre.Classifier, cfg SessionsConfig, log *slog.Logger) (*Sessions, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if len(cfg.DefaultLanguages) == 0 {
		cfg.DefaultLanguages = domain.DefaultLanguages
	}
	if cfg.PerBookLimit <= 0 {
		cfg.PerBookLimit = DefaultPerBookLimit
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if log == nil {
		log = logger.Discard()
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *Engine]{
		NumCounters: cfg.MaxSessions * 10,
		MaxCost:     cfg.MaxSessions,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	return &Sessions{
		catalog:    catalog,
		history:    history,
		tables:     tables,
		classifier: classifier,
		cfg:        cfg,
		logger:     log,
		cache:      cache,
		now:        time.Now,
	}, nil
}

// Close releases the cache.
func (s *Sessions) Close() {
	s.cache.Close()
}

// ForUser returns the reader's engine, assembling their history on a miss:
// stored interactions plus one favorite interaction per favorite book,
// stamped now.
func (s *Sessions) ForUser(ctx context.Context, userID string) (*Engine, error) {
	key := "user:" + userID
	if e, ok := s.cache.Get(key); ok {
		metrics.EngineCache.WithLabelValues("hit").Inc()
		return e, nil
	}
	metrics.EngineCache.WithLabelValues("miss").Inc()

	user, err := s.history.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, err := s.history.ListInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	interactions := append(stored, user.FavoriteInteractions(s.now())...)

	langs := user.PreferredLanguages
	if len(langs) == 0 {
		langs = s.cfg.DefaultLanguages
	}

	e := s.newEngine(langs, WithInteractions(interactions))
	s.store(key, e)

	s.logger.Debug("recommendation session created",
		"user_id", userID,
		"interactions", len(interactions),
		"languages", langs,
	)
	return e, nil
}

// ForLanguages returns a shared anonymous engine for langs, used for
// popular listings outside a reader session.
func (s *Sessions) ForLanguages(langs []string) *Engine {
	if len(langs) == 0 {
		langs = s.cfg.DefaultLanguages
	}
	sorted := slices.Clone(langs)
	slices.Sort(sorted)
	key := "lang:" + strings.Join(slices.Compact(sorted), ",")

	if e, ok := s.cache.Get(key); ok {
		metrics.EngineCache.WithLabelValues("hit").Inc()
		return e
	}
	metrics.EngineCache.WithLabelValues("miss").Inc()

	e := s.newEngine(langs)
	s.store(key, e)
	return e
}

// Invalidate drops the reader's engine so the next request sees fresh
// history.
func (s *Sessions) Invalidate(userID string) {
	s.cache.Del("user:" + userID)
}

// InvalidateAll drops every engine, e.g. after the catalog or tables change.
func (s *Sessions) InvalidateAll() {
	s.cache.Clear()
}

func (s *Sessions) newEngine(langs []string, opts ...EngineOption) *Engine {
	opts = append(opts,
		WithLanguages(langs),
		WithPerBookLimit(s.cfg.PerBookLimit),
		WithLogger(s.logger),
	)
	return NewEngine(s.catalog, s.tables, s.classifier, opts...)
}

func (s *Sessions) store(key string, e *Engine) {
	s.cache.SetWithTTL(key, e, 1, s.cfg.TTL)
	s.cache.Wait()
}
