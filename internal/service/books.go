// Package service holds the business logic behind the HTTP API: the book
// manager with its lazy link completion, reader accounts and the
// recommendation entry points.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/folioapp/folio-server/internal/completion"
	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/metrics"
	"github.com/folioapp/folio-server/internal/normalize"
	"github.com/folioapp/folio-server/internal/search"
	"github.com/folioapp/folio-server/internal/source"
	"github.com/folioapp/folio-server/internal/store"
	"github.com/folioapp/folio-server/internal/validation"
)

// CatalogStore is the catalog persistence the book manager needs.
type CatalogStore interface {
	CreateBook(ctx context.Context, book *domain.CatalogBook) error
	GetBook(ctx context.Context, id string) (*domain.CatalogBook, error)
	GetBookByExternalID(ctx context.Context, namespace, id string) (*domain.CatalogBook, error)
	UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.CatalogBook, error)
	AllBooks(ctx context.Context) ([]*domain.CatalogBook, error)
}

// ResourceLister lists the downloadable files of a book (Gutenberg).
type ResourceLister interface {
	Resources(ctx context.Context, id string) ([]completion.Resource, error)
}

// DownloadFinder resolves download info from a title (Anna's Archive).
type DownloadFinder interface {
	FindDownload(ctx context.Context, title string) (*domain.DownloadInfo, error)
}

// Searcher runs filtered catalog searches.
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// BookManager routes source requests to adapters and completes catalog
// links on demand.
type BookManager struct {
	store     CatalogStore
	registry  source.Registry
	searcher  Searcher
	validator *validation.Validator
	logger    *slog.Logger

	gutenberg ResourceLister
	annas     DownloadFinder

	lookups         singleflight.Group
	onCatalogChange func()
}

// NewBookManager creates a book manager. The Gutenberg and Anna's Archive
// adapters, when registered, double as the download sources of LookupBook.
func NewBookManager(store CatalogStore, registry source.Registry, searcher Searcher, validator *validation.Validator, log *slog.Logger) *BookManager {
	if log == nil {
		log = logger.Discard()
	}
	if validator == nil {
		validator = validation.New()
	}

	m := &BookManager{
		store:           store,
		registry:        registry,
		searcher:        searcher,
		validator:       validator,
		logger:          log,
		onCatalogChange: func() {},
	}
	if g, ok := registry[source.Gutenberg].(ResourceLister); ok {
		m.gutenberg = g
	}
	if a, ok := registry[source.AnnasArchive].(DownloadFinder); ok {
		m.annas = a
	}
	return m
}

// OnCatalogChange registers fn to run after a book is created or imported.
func (m *BookManager) OnCatalogChange(fn func()) {
	if fn != nil {
		m.onCatalogChange = fn
	}
}

// Sources lists the registered sources.
func (m *BookManager) Sources() []source.Source {
	return m.registry.Sources()
}

func (m *BookManager) adapter(src source.Source) (source.Adapter, error) {
	a, ok := m.registry[src]
	if !ok {
		return nil, domainerrors.UnregisteredSourcef("source %q is not registered", src)
	}
	return a, nil
}

// FetchBooks runs a keyword search against one source.
func (m *BookManager) FetchBooks(ctx context.Context, src source.Source, q source.Query, page int) (*source.Result, error) {
	a, err := m.adapter(src)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Terms()) == "" {
		return nil, domainerrors.Validation("query is required")
	}

	res, err := a.FetchBooks(ctx, q, source.Page(page))
	if err != nil {
		m.logger.Warn("source fetch failed", "source", src, "error", err)
		return nil, adapterError(src, err)
	}
	return res, nil
}

// SearchBookByID resolves one book on a source that supports it.
func (m *BookManager) SearchBookByID(ctx context.Context, src source.Source, externalID string) (source.SourceBook, error) {
	a, err := m.adapter(src)
	if err != nil {
		return nil, err
	}
	searcher, ok := a.(source.ByIDSearcher)
	if !ok {
		return nil, domainerrors.UnsupportedOperationf("source %q does not support lookup by id", src)
	}

	book, err := searcher.SearchByID(ctx, externalID)
	if err != nil {
		if !errors.Is(err, source.ErrNotFound) {
			m.logger.Warn("source lookup failed", "source", src, "external_id", externalID, "error", err)
		}
		return nil, adapterError(src, err)
	}
	return book, nil
}

// LookupBook returns the catalog book, first filling in whatever link
// fields are missing and persisting them. A complete book is returned
// without any source calls. Source failures only mean that source had
// nothing; the lookup itself fails only when the book does not exist.
// Concurrent lookups of the same id and format share one completion. The
// shared completion is detached from any single caller's cancellation; a
// caller that gives up gets its context error while the others keep waiting.
func (m *BookManager) LookupBook(ctx context.Context, bookID, format string) (domain.ClientBook, error) {
	if format == "" {
		format = completion.DefaultFormat
	}

	flight := context.WithoutCancel(ctx)
	ch := m.lookups.DoChan(bookID+"|"+format, func() (any, error) {
		return m.lookupBook(flight, bookID, format)
	})

	select {
	case <-ctx.Done():
		return domain.ClientBook{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.ClientBook{}, res.Err
		}
		return res.Val.(domain.ClientBook), nil
	}
}

func (m *BookManager) lookupBook(ctx context.Context, bookID, format string) (domain.ClientBook, error) {
	book, err := m.store.GetBook(ctx, bookID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.Lookups.WithLabelValues("error").Inc()
		} else {
			metrics.Lookups.WithLabelValues("not_found").Inc()
		}
		return domain.ClientBook{}, storeError(err, "book", bookID)
	}

	if book.Complete {
		metrics.Lookups.WithLabelValues("cached").Inc()
		return book.ToClient(), nil
	}

	var download *domain.DownloadInfo
	if completion.NeedsDownload(book.Link) {
		download = m.findDownload(ctx, book, format)
	}

	link, changes := completion.Apply(book.Link, book.Meta, download)
	if changes.Empty() {
		metrics.Lookups.WithLabelValues("partial").Inc()
		return book.ToClient(), nil
	}

	complete := link.IsComplete()
	updated, err := m.store.UpdateBook(ctx, bookID, domain.BookUpdate{Link: link, Complete: &complete})
	if err != nil {
		metrics.Lookups.WithLabelValues("error").Inc()
		return domain.ClientBook{}, storeError(err, "book", bookID)
	}

	for _, field := range changes {
		metrics.LinkFieldsFilled.WithLabelValues(field).Inc()
	}
	outcome := "partial"
	if updated.Complete {
		outcome = "completed"
	}
	metrics.Lookups.WithLabelValues(outcome).Inc()

	m.logger.Info("book link completed",
		"book_id", bookID,
		"fields", []string(changes),
		"complete", updated.Complete,
	)
	return updated.ToClient(), nil
}

// findDownload asks Gutenberg first, and only when the book has a Gutenberg
// id, then Anna's Archive by title. Failures are logged and skipped.
func (m *BookManager) findDownload(ctx context.Context, book *domain.CatalogBook, format string) *domain.DownloadInfo {
	if m.gutenberg != nil {
		for _, gid := range book.Meta.GutenbergIDs {
			resources, err := m.gutenberg.Resources(ctx, gid)
			if err != nil {
				m.logger.Warn("gutenberg resources failed", "book_id", book.ID, "gutenberg_id", gid, "error", err)
				continue
			}
			if info := completion.BestResource(resources, format); info != nil {
				return info
			}
		}
	}

	if m.annas != nil && book.Title != "" {
		info, err := m.annas.FindDownload(ctx, book.Title)
		if err != nil {
			m.logger.Warn("annas archive download failed", "book_id", book.ID, "error", err)
			return nil
		}
		return info
	}
	return nil
}

// CreateBookInput is the payload for adding a book to the catalog.
type CreateBookInput struct {
	Title           string       `json:"title" validate:"required,max=500"`
	Author          []string     `json:"author" validate:"max=50,dive,required,max=200"`
	Subject         []string     `json:"subject" validate:"max=100,dive,max=200"`
	Rating          float64      `json:"rating" validate:"gte=0,lte=5"`
	PublishedYear   int          `json:"publishedYear,omitempty" validate:"gte=0,lte=3000"`
	Language        []string     `json:"language" validate:"max=20,dive,language"`
	EbookAccess     bool         `json:"ebookAccess"`
	ISBN            string       `json:"isbn,omitempty" validate:"isbn"`
	GutenbergIDs    []string     `json:"gutenbergIds,omitempty" validate:"dive,required"`
	GoodreadsIDs    []string     `json:"goodreadsIds,omitempty" validate:"dive,required"`
	AnnasArchiveIDs []string     `json:"annasArchiveIds,omitempty" validate:"dive,required"`
	AmazonIDs       []string     `json:"amazonIds,omitempty" validate:"dive,required"`
	Link            *domain.Link `json:"link,omitempty"`
}

// CreateBook validates and stores a new catalog book under a fresh id.
func (m *BookManager) CreateBook(ctx context.Context, in CreateBookInput) (*domain.CatalogBook, error) {
	if err := m.validator.Validate(in); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book id: %w", err)
	}

	book := &domain.CatalogBook{
		ID: bookID,
		Meta: domain.BookMeta{
			ISBN:            normalize.ISBN(in.ISBN),
			GutenbergIDs:    in.GutenbergIDs,
			GoodreadsIDs:    in.GoodreadsIDs,
			AnnasArchiveIDs: in.AnnasArchiveIDs,
			AmazonIDs:       in.AmazonIDs,
		},
		Title:         strings.TrimSpace(in.Title),
		Author:        in.Author,
		Subject:       normalize.Subjects(in.Subject),
		Rating:        in.Rating,
		PublishedYear: in.PublishedYear,
		Language:      normalize.LanguageCodes(in.Language),
		EbookAccess:   in.EbookAccess,
		Link:          in.Link.Clone(),
	}

	if err := m.store.CreateBook(ctx, book); err != nil {
		return nil, storeError(err, "book", book.Title)
	}
	m.onCatalogChange()
	return book, nil
}

// ImportFromSource fetches a book by its source id and adds it to the
// catalog. Importing the same foreign id or ISBN twice returns the
// existing record.
func (m *BookManager) ImportFromSource(ctx context.Context, src source.Source, externalID string) (*domain.CatalogBook, error) {
	sb, err := m.SearchBookByID(ctx, src, externalID)
	if err != nil {
		return nil, err
	}
	summary := sb.Summary()
	if summary.ExternalID == "" {
		summary.ExternalID = externalID
	}

	namespace, meta := importMeta(src, summary)
	if namespace != "" {
		if existing, err := m.store.GetBookByExternalID(ctx, namespace, summary.ExternalID); err == nil {
			return existing, nil
		}
	}
	if meta.ISBN != "" {
		if existing, err := m.store.GetBookByExternalID(ctx, store.ExternalISBN, meta.ISBN); err == nil {
			return existing, nil
		}
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book id: %w", err)
	}

	book := &domain.CatalogBook{
		ID:            bookID,
		Meta:          meta,
		Title:         summary.Title,
		Author:        summary.Authors,
		Subject:       normalize.Subjects(summary.Subjects),
		Rating:        summary.Rating,
		PublishedYear: summary.Year,
		Language:      normalize.LanguageCodes(summary.Languages),
		EbookAccess:   summary.Ebook,
	}
	if err := m.store.CreateBook(ctx, book); err != nil {
		return nil, storeError(err, "book", summary.Title)
	}

	m.logger.Info("book imported",
		"book_id", book.ID,
		"source", src,
		"external_id", summary.ExternalID,
	)
	m.onCatalogChange()
	return book, nil
}

// importMeta records the foreign id under the namespace of its source.
// Sources without a namespace are only deduplicated by ISBN.
func importMeta(src source.Source, s source.Summary) (string, domain.BookMeta) {
	meta := domain.BookMeta{ISBN: normalize.ISBN(s.ISBN)}
	switch src {
	case source.Gutenberg:
		meta.GutenbergIDs = []string{s.ExternalID}
		return store.ExternalGutenberg, meta
	case source.Goodreads:
		meta.GoodreadsIDs = []string{s.ExternalID}
		return store.ExternalGoodreads, meta
	case source.AnnasArchive:
		meta.AnnasArchiveIDs = []string{s.ExternalID}
		return store.ExternalAnnasArchive, meta
	default:
		return "", meta
	}
}

// Search runs a filtered full-text search over the catalog.
func (m *BookManager) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if m.searcher == nil {
		return nil, domainerrors.ErrUnavailable
	}
	res, err := m.searcher.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	return res, nil
}
