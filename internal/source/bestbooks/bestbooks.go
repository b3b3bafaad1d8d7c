// Package bestbooks adapts the Best Books list API, a curated JSON catalog
// of highly rated titles.
package bestbooks

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/folioapp/folio-server/internal/normalize"
	"github.com/folioapp/folio-server/internal/source"
)

// DefaultLimit is the page size used when the query does not set one.
const DefaultLimit = 25

// Book is a Best Books entry. Description is Markdown.
type Book struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Genres       []string `json:"genres"`
	Rating       float64  `json:"rating"`
	RatingsCount int      `json:"ratingsCount"`
	Year         int      `json:"year,omitempty"`
	ISBN         string   `json:"isbn,omitempty"`
	Language     string   `json:"language,omitempty"`
	Description  string   `json:"description,omitempty"`
	CoverURL     string   `json:"coverUrl,omitempty"`
}

// Summary implements source.SourceBook.
func (b *Book) Summary() source.Summary {
	s := source.Summary{
		Source:     source.BestBooks,
		ExternalID: b.ID,
		Title:      b.Title,
		Authors:    b.Authors,
		Subjects:   b.Genres,
		ISBN:       normalize.ISBN(b.ISBN),
		Year:       b.Year,
		Rating:     b.Rating,
	}
	if code := normalize.LanguageCode(b.Language); code != "" {
		s.Languages = []string{code}
	}
	return s
}

// Client talks to the Best Books API.
type Client struct {
	transport *source.Transport
	baseURL   string
	header    http.Header
}

// New creates a Best Books adapter. apiKey may be empty.
func New(t *source.Transport, baseURL, apiKey string) *Client {
	header := http.Header{}
	if apiKey != "" {
		header.Set("Authorization", "Bearer "+apiKey)
	}
	return &Client{transport: t, baseURL: baseURL, header: header}
}

// Source implements source.Adapter.
func (c *Client) Source() source.Source { return source.BestBooks }

// FetchBooks lists books matching q.
func (c *Client) FetchBooks(ctx context.Context, q source.Query, page int) (*source.Result, error) {
	page = source.Page(page)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	if terms := q.Terms(); terms != "" {
		params.Set("search", terms)
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}

	u, err := source.BuildURL(c.baseURL, "/books", params)
	if err != nil {
		return nil, source.WrapError(source.BestBooks, "fetch", "", err)
	}

	var raw rawList
	if err := c.transport.GetJSON(ctx, source.BestBooks, u, c.header, &raw); err != nil {
		return nil, source.WrapError(source.BestBooks, "fetch", "", err)
	}
	if raw.Books == nil {
		return nil, source.WrapError(source.BestBooks, "fetch", "", source.Invalidf("missing books array"))
	}

	out := &source.Result{TotalResults: raw.Total, CurrentPage: page}
	for _, b := range raw.Books {
		if err := b.validate(); err != nil {
			return nil, source.WrapError(source.BestBooks, "fetch", "", err)
		}
		out.Books = append(out.Books, b.toBook())
	}
	return out, nil
}

// SearchByID implements source.ByIDSearcher.
func (c *Client) SearchByID(ctx context.Context, id string) (source.SourceBook, error) {
	if strings.ContainsAny(id, "/?#") || id == "" {
		return nil, source.WrapError(source.BestBooks, "searchById", id, source.ErrBadRequest)
	}
	u, err := source.BuildURL(c.baseURL, "/books/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, source.WrapError(source.BestBooks, "searchById", id, err)
	}

	var raw rawBook
	if err := c.transport.GetJSON(ctx, source.BestBooks, u, c.header, &raw); err != nil {
		return nil, source.WrapError(source.BestBooks, "searchById", id, err)
	}
	if err := raw.validate(); err != nil {
		return nil, source.WrapError(source.BestBooks, "searchById", id, err)
	}
	return raw.toBook(), nil
}

// Raw API response types.

type rawList struct {
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Books []rawBook `json:"books"`
}

type rawBook struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Genres          []string `json:"genres"`
	Rating          float64  `json:"rating"`
	RatingsCount    int      `json:"ratingsCount"`
	Year            int      `json:"year"`
	ISBN            string   `json:"isbn"`
	Language        string   `json:"language"`
	DescriptionHTML string   `json:"descriptionHtml"`
	Cover           string   `json:"cover"`
}

func (r *rawBook) validate() error {
	if r.ID == "" || r.Title == "" {
		return source.Invalidf("book missing id or title")
	}
	if r.Rating < 0 || r.Rating > 5 {
		return source.Invalidf("book %s rating %v outside [0, 5]", r.ID, r.Rating)
	}
	return nil
}

func (r *rawBook) toBook() *Book {
	return &Book{
		ID:           r.ID,
		Title:        r.Title,
		Authors:      r.Authors,
		Genres:       r.Genres,
		Rating:       r.Rating,
		RatingsCount: r.RatingsCount,
		Year:         r.Year,
		ISBN:         r.ISBN,
		Language:     r.Language,
		Description:  source.Markdown(r.DescriptionHTML),
		CoverURL:     r.Cover,
	}
}
