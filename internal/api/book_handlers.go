package api

import (
	"cmp"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/normalize"
	"github.com/folioapp/folio-server/internal/search"
	"github.com/folioapp/folio-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "popularBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/popular",
		Summary:     "Popular books",
		Description: "Returns one page of the top rated catalog books in the requested languages",
		Tags:        []string{"Books"},
	}, s.handlePopularBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text catalog search with subject, language, rating and download filters",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Look up book",
		Description: "Returns a catalog book, filling in missing download, read and buy links on the way",
		Tags:        []string{"Books"},
	}, s.handleLookupBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book to the catalog",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)
}

// === DTOs ===

type LookupBookInput struct {
	ID     string `path:"id" doc:"Catalog book ID"`
	Format string `query:"format" enum:"epub,mobi,pdf,txt,html" doc:"Preferred download format (default epub)"`
}

type BookOutput struct {
	Body domain.ClientBook
}

type CreateBookRequest struct {
	Title           string       `json:"title" minLength:"1" maxLength:"500" doc:"Book title"`
	Author          []string     `json:"author,omitempty" doc:"Authors"`
	Subject         []string     `json:"subject,omitempty" doc:"Subject headings"`
	Rating          float64      `json:"rating,omitempty" minimum:"0" maximum:"5" doc:"Average rating, 0 to 5"`
	PublishedYear   int          `json:"publishedYear,omitempty" doc:"Year of first publication"`
	Language        []string     `json:"language,omitempty" doc:"Languages (codes or names)"`
	EbookAccess     bool         `json:"ebookAccess,omitempty" doc:"Whether an ebook edition exists"`
	ISBN            string       `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13"`
	GutenbergIDs    []string     `json:"gutenbergIds,omitempty" doc:"Project Gutenberg ebook numbers"`
	GoodreadsIDs    []string     `json:"goodreadsIds,omitempty" doc:"Goodreads book IDs"`
	AnnasArchiveIDs []string     `json:"annasArchiveIds,omitempty" doc:"Anna's Archive MD5 IDs"`
	AmazonIDs       []string     `json:"amazonIds,omitempty" doc:"Amazon ASINs"`
	Link            *domain.Link `json:"link,omitempty" doc:"Known access links"`
}

type CreateBookInput struct {
	Body CreateBookRequest
}

type CatalogBookOutput struct {
	Body *domain.CatalogBook
}

type PopularBooksInput struct {
	Lang  []string `query:"lang" doc:"Languages to include (default: server defaults)"`
	Page  int      `query:"page" default:"1" minimum:"1" doc:"1-based page number"`
	Limit int      `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Books per page"`
}

type BookListResponse struct {
	Books []domain.ClientBook `json:"books" doc:"Books on this page"`
	Page  int                 `json:"page" doc:"Page number"`
	Limit int                 `json:"limit" doc:"Page size"`
}

type BookListOutput struct {
	Body BookListResponse
}

type SearchBooksInput struct {
	Query        string  `query:"q" doc:"Free text matched against title and author"`
	Subject      string  `query:"subject" doc:"Exact subject filter"`
	Language     string  `query:"language" doc:"Language filter (code or name)"`
	Downloadable string  `query:"downloadable" enum:"true,false" doc:"Only books with (or without) a download link"`
	MinRating    float64 `query:"minRating" minimum:"0" maximum:"5" doc:"Minimum rating"`
	Sort         string  `query:"sort" default:"relevance" enum:"relevance,rating,recent" doc:"Sort order"`
	Page         int     `query:"page" default:"1" minimum:"1" doc:"1-based page number"`
	Limit        int     `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Hits per page"`
}

type SearchBooksOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleLookupBook(ctx context.Context, input *LookupBookInput) (*BookOutput, error) {
	book, err := s.services.Books.LookupBook(ctx, input.ID, input.Format)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*CatalogBookOutput, error) {
	req := input.Body
	book, err := s.services.Books.CreateBook(ctx, service.CreateBookInput{
		Title:           req.Title,
		Author:          req.Author,
		Subject:         req.Subject,
		Rating:          req.Rating,
		PublishedYear:   req.PublishedYear,
		Language:        req.Language,
		EbookAccess:     req.EbookAccess,
		ISBN:            req.ISBN,
		GutenbergIDs:    req.GutenbergIDs,
		GoodreadsIDs:    req.GoodreadsIDs,
		AnnasArchiveIDs: req.AnnasArchiveIDs,
		AmazonIDs:       req.AmazonIDs,
		Link:            req.Link,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &CatalogBookOutput{Body: book}, nil
}

func (s *Server) handlePopularBooks(ctx context.Context, input *PopularBooksInput) (*BookListOutput, error) {
	books, err := s.services.Recommendations.Popular(ctx, input.Lang, input.Page, input.Limit)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &BookListOutput{Body: BookListResponse{
		Books: clientBooks(books),
		Page:  input.Page,
		Limit: input.Limit,
	}}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Subject = normalize.Subject(input.Subject)
	params.Language = cmp.Or(normalize.LanguageCode(input.Language), input.Language)
	params.MinRating = input.MinRating
	params.SortBy = input.Sort
	params.Limit = input.Limit
	params.Offset = (input.Page - 1) * input.Limit
	if input.Downloadable != "" {
		downloadable := input.Downloadable == "true"
		params.Downloadable = &downloadable
	}

	result, err := s.services.Books.Search(ctx, params)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SearchBooksOutput{Body: result}, nil
}

func clientBooks(books []*domain.CatalogBook) []domain.ClientBook {
	out := make([]domain.ClientBook, len(books))
	for i, b := range books {
		out[i] = b.ToClient()
	}
	return out
}
