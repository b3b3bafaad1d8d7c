// Package main provides a tool to seed the catalog from a third-party source.
//
// It runs a keyword search against one source, imports every result into the
// catalog and can create test readers with random interactions so the
// recommendation endpoints have history to work with.
//
// Usage:
//
//	go run ./cmd/seed --source gutenberg --query dracula --pages 2
//	go run ./cmd/seed --source gutenberg --query austen --create-users 3
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/di"
	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/service"
	"github.com/folioapp/folio-server/internal/source"
)

var (
	dataPath    string
	envFile     string
	sourceName  string
	query       string
	pages       int
	createUsers int
)

var interactionTypes = []domain.InteractionType{
	domain.InteractionSearchClick,
	domain.InteractionCoverClick,
	domain.InteractionLike,
	domain.InteractionRead,
	domain.InteractionBuy,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := parser().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func parser() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Import books from a source into the catalog",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().StringVar(&dataPath, "data-path", "", "base path for catalog data")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to .env file")
	cmd.Flags().StringVarP(&sourceName, "source", "s", string(source.Gutenberg), "source to search")
	cmd.Flags().StringVarP(&query, "query", "q", "", "free text search")
	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "result pages to import")
	cmd.Flags().IntVar(&createUsers, "create-users", 0, "test readers to create with random interactions")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	src, err := source.Parse(sourceName)
	if err != nil {
		return err
	}

	args := []string{"--env-file", envFile}
	if dataPath != "" {
		args = append(args, "--data-path", dataPath)
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	// Only the services are resolved; the HTTP server provider is never invoked.
	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	defer injector.Shutdown()

	log := do.MustInvoke[*logger.Logger](injector)
	books := do.MustInvoke[*service.BookManager](injector)
	users := do.MustInvoke[*service.UserService](injector)

	var imported []*domain.CatalogBook
	for page := 1; page <= pages; page++ {
		res, err := books.FetchBooks(ctx, src, source.Query{Text: query}, page)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(res.Books) == 0 {
			break
		}
		for _, b := range res.Books {
			sum := b.Summary()
			book, err := books.ImportFromSource(ctx, src, sum.ExternalID)
			if err != nil {
				log.Warn("import failed", "source", src, "external_id", sum.ExternalID, "error", err)
				continue
			}
			imported = append(imported, book)
			fmt.Fprintf(out, "  %s  %s\n", book.ID, book.Title)
		}
	}
	fmt.Fprintf(out, "Imported %d books from %s\n", len(imported), src)

	if createUsers == 0 || len(imported) == 0 {
		return nil
	}

	for n := range createUsers {
		user, err := users.CreateUser(ctx, service.CreateUserInput{
			Name:               fmt.Sprintf("Test Reader %d", n+1),
			PreferredLanguages: cfg.Recommend.DefaultLanguages,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		picks := rand.Perm(len(imported))[:min(3+rand.IntN(3), len(imported))]
		for _, i := range picks {
			in := service.InteractionInput{
				Type:   string(interactionTypes[rand.IntN(len(interactionTypes))]),
				BookID: imported[i].ID,
			}
			if _, err := users.RecordInteraction(ctx, user.ID, in); err != nil {
				return fmt.Errorf("record interaction: %w", err)
			}
		}
		if _, err := users.AddFavorite(ctx, user.ID, imported[picks[0]].ID); err != nil {
			return fmt.Errorf("add favorite: %w", err)
		}
		fmt.Fprintf(out, "Created %s (%s) with %d interactions\n", user.Name, user.ID, len(picks))
	}
	return nil
}
