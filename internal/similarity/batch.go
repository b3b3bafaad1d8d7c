package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/metrics"
)

// Batch defaults.
const (
	DefaultChunkSize = 500
	DefaultThreshold = 0.05
	DefaultWorkers   = 4
)

// Options tunes a batch run.
type Options struct {
	ChunkSize    int
	Threshold    float64
	ShortCircuit bool
	Workers      int // genres scored concurrently
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 1 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// GenreOf returns the genre a book's table lives under. Books whose
// subjects do not classify go to genre.OtherGenre.
func GenreOf(c *genre.Classifier, subjects []string) string {
	if g := c.Classify(subjects); g != "" {
		return g
	}
	return genre.OtherGenre
}

// Report summarizes a batch run.
type Report struct {
	Books    int
	Genres   int
	Chunks   int
	Pairs    int
	Duration time.Duration
}

// Batch regenerates all similarity tables from the catalog.
type Batch struct {
	classifier *genre.Classifier
	store      TableStore
	opts       Options
	logger     *slog.Logger
}

// NewBatch creates a batch job writing to store.
func NewBatch(classifier *genre.Classifier, store TableStore, opts Options, log *slog.Logger) *Batch {
	if log == nil {
		log = logger.Discard()
	}
	return &Batch{
		classifier: classifier,
		store:      store,
		opts:       opts.withDefaults(),
		logger:     log,
	}
}

// Run drops the existing tables, groups books by genre, splits each group
// into chunks and saves one table per chunk. Genres are processed
// concurrently; chunks of a genre in order.
func (b *Batch) Run(ctx context.Context, books []*domain.CatalogBook) (*Report, error) {
	start := time.Now()

	if err := b.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset tables: %w", err)
	}

	groups, order := b.group(books)

	var (
		mu     sync.Mutex
		report = Report{Books: len(books), Genres: len(order)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for _, name := range order {
		members := groups[name]
		g.Go(func() error {
			chunks, pairs, err := b.scoreGenre(ctx, name, members)
			if err != nil {
				return fmt.Errorf("genre %q: %w", name, err)
			}
			mu.Lock()
			report.Chunks += chunks
			report.Pairs += pairs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	b.logger.Info("similarity tables rebuilt",
		"books", report.Books,
		"genres", report.Genres,
		"chunks", report.Chunks,
		"pairs", report.Pairs,
		"duration", report.Duration,
	)
	return &report, nil
}

func (b *Batch) group(books []*domain.CatalogBook) (map[string][]ScoreBook, []string) {
	groups := make(map[string][]ScoreBook)
	var order []string
	for _, book := range books {
		name := GenreOf(b.classifier, book.Subject)
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], FromCatalog(book))
	}
	return groups, order
}

func (b *Batch) scoreGenre(ctx context.Context, name string, members []ScoreBook) (chunks, pairs int, err error) {
	for i := 0; i < len(members); i += b.opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return chunks, pairs, err
		}

		end := min(i+b.opts.ChunkSize, len(members))
		table := Build(members[i:end], b.opts.Threshold, b.opts.ShortCircuit)
		if err := b.store.Save(ctx, name, chunks, table); err != nil {
			return chunks, pairs, fmt.Errorf("save chunk %d: %w", chunks, err)
		}

		n := table.Pairs()
		metrics.SimilarityPairs.WithLabelValues(name).Add(float64(n))
		b.logger.Debug("similarity chunk saved", "genre", name, "chunk", chunks, "books", end-i, "pairs", n)

		chunks++
		pairs += n
	}
	return chunks, pairs, nil
}
