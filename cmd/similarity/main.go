// Package main provides the offline job that regenerates similarity tables
// from the catalog.
//
// Usage:
//
//	go run ./cmd/similarity --data-path ~/Folio/data --backend sqlite
//	go run ./cmd/similarity inspect
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/di/providers"
	"github.com/folioapp/folio-server/internal/genre"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/similarity"
	"github.com/folioapp/folio-server/internal/store"
)

var (
	dataPath     string
	envFile      string
	backend      string
	tablesDir    string
	chunkSize    int
	threshold    float64
	shortCircuit bool
	workers      int
	verbose      bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := parser()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func parser() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "similarity",
		Short:        "Rebuild per-genre similarity tables from the catalog",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&dataPath, "data-path", "", "base path for catalog data (default: DATA_PATH or ~/Folio/data)")
	flags.StringVar(&envFile, "env-file", ".env", "path to .env file")
	flags.StringVar(&backend, "backend", "", "table backend: file or sqlite (default: SIMILARITY_BACKEND or file)")
	flags.StringVar(&tablesDir, "dir", "", "directory for similarity tables (default: <data-path>/similarity)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log in debug mode")

	cmd.Flags().IntVar(&chunkSize, "chunk-size", similarity.DefaultChunkSize, "books per chunk; pairs are only scored within a chunk")
	cmd.Flags().Float64Var(&threshold, "threshold", similarity.DefaultThreshold, "minimum score for a pair to be stored")
	cmd.Flags().BoolVar(&shortCircuit, "short-circuit", false, "stop scoring a book's row at the first pair below the threshold")
	cmd.Flags().IntVarP(&workers, "workers", "w", similarity.DefaultWorkers, "genres scored concurrently")

	cmd.AddCommand(&cobra.Command{
		Use:          "inspect",
		Short:        "List stored chunks per genre",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         inspect,
	})
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	args := []string{"--env-file", envFile}
	if dataPath != "" {
		args = append(args, "--data-path", dataPath)
	}
	if backend != "" {
		args = append(args, "--similarity-backend", backend)
	}
	if tablesDir != "" {
		args = append(args, "--similarity-dir", tablesDir)
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("chunk-size") {
		cfg.Similarity.ChunkSize = chunkSize
	}
	if flags.Changed("threshold") {
		cfg.Similarity.Threshold = threshold
	}
	if flags.Changed("short-circuit") {
		cfg.Similarity.ShortCircuit = shortCircuit
	}
	if flags.Changed("workers") {
		cfg.Similarity.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := cfg.Logger.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(level),
		Environment: cfg.App.Environment,
	})
	return cfg, log, nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	catalog, err := store.New(cfg.Catalog.StorePath(), log.Logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()

	tables, closeTables, err := providers.OpenSimilarityTables(cfg.Similarity, log)
	if err != nil {
		return fmt.Errorf("open tables: %w", err)
	}
	if closeTables != nil {
		defer closeTables()
	}

	books, err := catalog.AllBooks(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	classifier := genre.NewClassifier(genre.Default(), cfg.Genre.MinScore)
	batch := similarity.NewBatch(classifier, tables, similarity.Options{
		ChunkSize:    cfg.Similarity.ChunkSize,
		Threshold:    cfg.Similarity.Threshold,
		ShortCircuit: cfg.Similarity.ShortCircuit,
		Workers:      cfg.Similarity.Workers,
	}, log.Logger)

	report, err := batch.Run(ctx, books)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "books=%d genres=%d chunks=%d pairs=%d duration=%s\n",
		report.Books, report.Genres, report.Chunks, report.Pairs, report.Duration)
	return nil
}

func inspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	catalog, err := store.New(cfg.Catalog.StorePath(), log.Logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()

	tables, closeTables, err := providers.OpenSimilarityTables(cfg.Similarity, log)
	if err != nil {
		return fmt.Errorf("open tables: %w", err)
	}
	if closeTables != nil {
		defer closeTables()
	}

	books, err := catalog.AllBooks(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	classifier := genre.NewClassifier(genre.Default(), cfg.Genre.MinScore)
	counts := make(map[string]int)
	for _, b := range books {
		counts[similarity.GenreOf(classifier, b.Subject)]++
	}
	names := slices.Sorted(maps.Keys(counts))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GENRE\tBOOKS\tCHUNKS\tPAIRS")
	for _, name := range names {
		chunks, err := tables.Chunks(ctx, name)
		if err != nil {
			return fmt.Errorf("genre %q: %w", name, err)
		}
		pairs := 0
		for _, c := range chunks {
			t, err := tables.Load(ctx, name, c)
			if err != nil {
				return fmt.Errorf("genre %q chunk %d: %w", name, c, err)
			}
			pairs += t.Pairs()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, counts[name], len(chunks), pairs)
	}
	return w.Flush()
}
