// Package gutenberg adapts the Gutendex API for Project Gutenberg.
package gutenberg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/folioapp/folio-server/internal/completion"
	"github.com/folioapp/folio-server/internal/source"
)

// Book is a Project Gutenberg title.
type Book struct {
	ID            int                   `json:"id"`
	Title         string                `json:"title"`
	Authors       []string              `json:"authors"`
	Subjects      []string              `json:"subjects"`
	Bookshelves   []string              `json:"bookshelves"`
	Languages     []string              `json:"languages"`
	Copyright     bool                  `json:"copyright"`
	DownloadCount int                   `json:"downloadCount"`
	Resources     []completion.Resource `json:"resources"`
}

// Summary implements source.SourceBook.
func (b *Book) Summary() source.Summary {
	return source.Summary{
		Source:     source.Gutenberg,
		ExternalID: strconv.Itoa(b.ID),
		Title:      b.Title,
		Authors:    b.Authors,
		Subjects:   b.Subjects,
		Languages:  b.Languages,
		Ebook:      len(b.Resources) > 0,
	}
}

// Client talks to Gutendex.
type Client struct {
	transport *source.Transport
	baseURL   string
	header    http.Header
}

// New creates a Gutenberg adapter.
func New(t *source.Transport, baseURL string) *Client {
	return &Client{transport: t, baseURL: baseURL, header: http.Header{}}
}

// Source implements source.Adapter.
func (c *Client) Source() source.Source { return source.Gutenberg }

// FetchBooks searches the catalog. Gutendex pages are fixed at 32 results,
// so q.Limit only trims the returned page.
func (c *Client) FetchBooks(ctx context.Context, q source.Query, page int) (*source.Result, error) {
	page = source.Page(page)
	params := url.Values{"page": {strconv.Itoa(page)}}
	if terms := q.Terms(); terms != "" {
		params.Set("search", terms)
	}
	if q.Language != "" {
		params.Set("languages", q.Language)
	}

	u, err := source.BuildURL(c.baseURL, "/books", params)
	if err != nil {
		return nil, source.WrapError(source.Gutenberg, "fetch", "", err)
	}

	var raw rawList
	if err := c.transport.GetJSON(ctx, source.Gutenberg, u, c.header, &raw); err != nil {
		return nil, source.WrapError(source.Gutenberg, "fetch", "", err)
	}
	if err := raw.validate(); err != nil {
		return nil, source.WrapError(source.Gutenberg, "fetch", "", err)
	}

	books := raw.Results
	if q.Limit > 0 && len(books) > q.Limit {
		books = books[:q.Limit]
	}
	out := &source.Result{TotalResults: *raw.Count, CurrentPage: page}
	for _, b := range books {
		out.Books = append(out.Books, b.toBook())
	}
	return out, nil
}

// SearchByID implements source.ByIDSearcher.
func (c *Client) SearchByID(ctx context.Context, id string) (source.SourceBook, error) {
	raw, err := c.get(ctx, "searchById", id)
	if err != nil {
		return nil, err
	}
	return raw.toBook(), nil
}

// Resources lists the downloadable files offered for a Gutenberg id.
func (c *Client) Resources(ctx context.Context, id string) ([]completion.Resource, error) {
	raw, err := c.get(ctx, "resources", id)
	if err != nil {
		return nil, err
	}
	return raw.resources(), nil
}

func (c *Client) get(ctx context.Context, op, id string) (*rawBook, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, source.WrapError(source.Gutenberg, op, id, fmt.Errorf("%w: id must be numeric", source.ErrBadRequest))
	}
	u, err := source.BuildURL(c.baseURL, "/books/"+id, nil)
	if err != nil {
		return nil, source.WrapError(source.Gutenberg, op, id, err)
	}

	var raw rawBook
	if err := c.transport.GetJSON(ctx, source.Gutenberg, u, c.header, &raw); err != nil {
		return nil, source.WrapError(source.Gutenberg, op, id, err)
	}
	if raw.ID == 0 || raw.Title == "" {
		return nil, source.WrapError(source.Gutenberg, op, id, source.Invalidf("book missing id or title"))
	}
	return &raw, nil
}

// Raw API response types.

type rawList struct {
	Count   *int      `json:"count"`
	Results []rawBook `json:"results"`
}

func (r *rawList) validate() error {
	if r.Count == nil {
		return source.Invalidf("missing count")
	}
	if r.Results == nil {
		return source.Invalidf("missing results array")
	}
	return nil
}

type rawPerson struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}

type rawBook struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	Authors       []rawPerson       `json:"authors"`
	Subjects      []string          `json:"subjects"`
	Bookshelves   []string          `json:"bookshelves"`
	Languages     []string          `json:"languages"`
	Copyright     *bool             `json:"copyright"`
	MediaType     string            `json:"media_type"`
	Formats       map[string]string `json:"formats"`
	DownloadCount int               `json:"download_count"`
}

func (r *rawBook) toBook() *Book {
	b := &Book{
		ID:            r.ID,
		Title:         r.Title,
		Subjects:      r.Subjects,
		Bookshelves:   r.Bookshelves,
		Languages:     r.Languages,
		Copyright:     r.Copyright != nil && *r.Copyright,
		DownloadCount: r.DownloadCount,
		Resources:     r.resources(),
	}
	for _, a := range r.Authors {
		b.Authors = append(b.Authors, displayName(a.Name))
	}
	return b
}

func (r *rawBook) resources() []completion.Resource {
	out := make([]completion.Resource, 0, len(r.Formats))
	for mime, uri := range r.Formats {
		out = append(out, completion.Resource{URI: uri, Type: mime})
	}
	return out
}

// displayName turns Gutenberg's "Shelley, Mary Wollstonecraft" into
// "Mary Wollstonecraft Shelley".
func displayName(name string) string {
	last, first, ok := strings.Cut(name, ", ")
	if !ok {
		return name
	}
	return first + " " + last
}
