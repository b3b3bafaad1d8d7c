package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/source"
)

func (s *Server) registerSourceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSources",
		Method:      http.MethodGet,
		Path:        "/api/v1/sources",
		Summary:     "List sources",
		Description: "Returns the third-party sources this server is configured with",
		Tags:        []string{"Sources"},
	}, s.handleListSources)

	huma.Register(s.api, huma.Operation{
		OperationID: "fetchSourceBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/sources/{source}/books",
		Summary:     "Search a source",
		Description: "Runs a keyword search against one source and returns its normalized books",
		Tags:        []string{"Sources"},
	}, s.handleFetchSourceBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSourceBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/sources/{source}/books/{externalId}",
		Summary:     "Get source book",
		Description: "Resolves one book by its source-specific identifier",
		Tags:        []string{"Sources"},
	}, s.handleGetSourceBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "importSourceBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/sources/{source}/books/{externalId}/import",
		Summary:       "Import source book",
		Description:   "Adds a source book to the catalog, returning the existing record when already imported",
		Tags:          []string{"Sources"},
		DefaultStatus: http.StatusCreated,
	}, s.handleImportSourceBook)
}

// === DTOs ===

type SourceListOutput struct {
	Body struct {
		Sources []source.Source `json:"sources" doc:"Registered sources"`
	}
}

type FetchSourceBooksInput struct {
	Source   string `path:"source" doc:"Source name, e.g. gutenberg"`
	Query    string `query:"q" doc:"Free text"`
	Title    string `query:"title" doc:"Title terms"`
	Author   string `query:"author" doc:"Author terms"`
	Language string `query:"language" doc:"Language restriction where the source supports it"`
	Page     int    `query:"page" default:"1" minimum:"1" doc:"1-based page number"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size where the source supports it"`
}

type SourceBooksResponse struct {
	Books        []source.Summary `json:"books" doc:"Normalized books"`
	TotalResults int              `json:"totalResults" doc:"Total matches reported by the source"`
	CurrentPage  int              `json:"currentPage" doc:"Page number"`
}

type SourceBooksOutput struct {
	Body SourceBooksResponse
}

type SourceBookInput struct {
	Source     string `path:"source" doc:"Source name, e.g. gutenberg"`
	ExternalID string `path:"externalId" doc:"Source-specific book ID"`
}

type SourceBookResponse struct {
	Summary source.Summary `json:"summary" doc:"Source-independent projection"`
	Book    any            `json:"book" doc:"Full source-specific record"`
}

type SourceBookOutput struct {
	Body SourceBookResponse
}

// === Handlers ===

func (s *Server) handleListSources(_ context.Context, _ *struct{}) (*SourceListOutput, error) {
	out := &SourceListOutput{}
	out.Body.Sources = s.services.Books.Sources()
	return out, nil
}

func (s *Server) handleFetchSourceBooks(ctx context.Context, input *FetchSourceBooksInput) (*SourceBooksOutput, error) {
	src, err := parseSource(input.Source)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Books.FetchBooks(ctx, src, source.Query{
		Text:     input.Query,
		Title:    input.Title,
		Author:   input.Author,
		Language: input.Language,
		Limit:    input.Limit,
	}, input.Page)
	if err != nil {
		return nil, toAPIError(err)
	}

	books := make([]source.Summary, len(res.Books))
	for i, b := range res.Books {
		books[i] = b.Summary()
	}
	return &SourceBooksOutput{Body: SourceBooksResponse{
		Books:        books,
		TotalResults: res.TotalResults,
		CurrentPage:  res.CurrentPage,
	}}, nil
}

func (s *Server) handleGetSourceBook(ctx context.Context, input *SourceBookInput) (*SourceBookOutput, error) {
	src, err := parseSource(input.Source)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Books.SearchBookByID(ctx, src, input.ExternalID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SourceBookOutput{Body: SourceBookResponse{Summary: book.Summary(), Book: book}}, nil
}

func (s *Server) handleImportSourceBook(ctx context.Context, input *SourceBookInput) (*CatalogBookOutput, error) {
	src, err := parseSource(input.Source)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Books.ImportFromSource(ctx, src, input.ExternalID)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &CatalogBookOutput{Body: book}, nil
}

func parseSource(raw string) (source.Source, error) {
	src, err := source.Parse(raw)
	if err != nil {
		return "", toAPIError(domainerrors.UnregisteredSourcef("unknown source %q", raw).WithCause(err))
	}
	return src, nil
}
