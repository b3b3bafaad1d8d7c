// Package openlibrary adapts the Open Library search API.
package openlibrary

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/folioapp/folio-server/internal/normalize"
	"github.com/folioapp/folio-server/internal/source"
)

// DefaultLimit is the page size used when the query does not set one.
const DefaultLimit = 20

var workKeyPattern = regexp.MustCompile(`^OL\d+W$`)

var searchFields = strings.Join([]string{
	"key", "title", "author_name", "first_publish_year", "isbn", "subject",
	"language", "ratings_average", "ebook_access", "id_project_gutenberg",
	"id_goodreads", "id_amazon",
}, ",")

// Book is an Open Library work.
type Book struct {
	Key            string   `json:"key"`
	Title          string   `json:"title"`
	Authors        []string `json:"authors"`
	FirstPublished int      `json:"firstPublished,omitempty"`
	ISBNs          []string `json:"isbns,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	EbookAccess    string   `json:"ebookAccess,omitempty"`
	GutenbergIDs   []string `json:"gutenbergIds,omitempty"`
	GoodreadsIDs   []string `json:"goodreadsIds,omitempty"`
	AmazonIDs      []string `json:"amazonIds,omitempty"`
}

// Summary implements source.SourceBook.
func (b *Book) Summary() source.Summary {
	s := source.Summary{
		Source:     source.OpenLibrary,
		ExternalID: strings.TrimPrefix(b.Key, "/works/"),
		Title:      b.Title,
		Authors:    b.Authors,
		Subjects:   b.Subjects,
		Languages:  normalize.LanguageCodes(b.Languages),
		Year:       b.FirstPublished,
		Rating:     b.Rating,
		Ebook:      b.EbookAccess == "public" || b.EbookAccess == "borrowable",
	}
	for _, isbn := range b.ISBNs {
		if s.ISBN = normalize.ISBN(isbn); s.ISBN != "" {
			break
		}
	}
	return s
}

// Client talks to Open Library.
type Client struct {
	transport *source.Transport
	baseURL   string
	header    http.Header
}

// New creates an Open Library adapter.
func New(t *source.Transport, baseURL string) *Client {
	return &Client{transport: t, baseURL: baseURL, header: http.Header{}}
}

// Source implements source.Adapter.
func (c *Client) Source() source.Source { return source.OpenLibrary }

func searchParams(q source.Query, page int) url.Values {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params := url.Values{
		"page":   {strconv.Itoa(page)},
		"limit":  {strconv.Itoa(limit)},
		"fields": {searchFields},
	}
	if q.Text != "" {
		params.Set("q", q.Text)
	}
	if q.Title != "" {
		params.Set("title", q.Title)
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	if q.Language != "" {
		params.Set("lang", q.Language)
	}
	return params
}

// FetchBooks runs a search.
func (c *Client) FetchBooks(ctx context.Context, q source.Query, page int) (*source.Result, error) {
	page = source.Page(page)
	raw, err := c.search(ctx, "fetch", "", searchParams(q, page))
	if err != nil {
		return nil, err
	}

	out := &source.Result{TotalResults: *raw.NumFound, CurrentPage: page}
	for _, d := range raw.Docs {
		out.Books = append(out.Books, d.toBook())
	}
	return out, nil
}

// SearchByID resolves a work key such as "OL45804W".
func (c *Client) SearchByID(ctx context.Context, id string) (source.SourceBook, error) {
	id = strings.TrimPrefix(id, "/works/")
	if !workKeyPattern.MatchString(id) {
		return nil, source.WrapError(source.OpenLibrary, "searchById", id, source.ErrBadRequest)
	}

	params := url.Values{"q": {"key:/works/" + id}, "fields": {searchFields}, "limit": {"1"}}
	raw, err := c.search(ctx, "searchById", id, params)
	if err != nil {
		return nil, err
	}
	if len(raw.Docs) == 0 {
		return nil, source.WrapError(source.OpenLibrary, "searchById", id, source.ErrNotFound)
	}
	return raw.Docs[0].toBook(), nil
}

func (c *Client) search(ctx context.Context, op, id string, params url.Values) (*rawSearch, error) {
	u, err := source.BuildURL(c.baseURL, "/search.json", params)
	if err != nil {
		return nil, source.WrapError(source.OpenLibrary, op, id, err)
	}

	var raw rawSearch
	if err := c.transport.GetJSON(ctx, source.OpenLibrary, u, c.header, &raw); err != nil {
		return nil, source.WrapError(source.OpenLibrary, op, id, err)
	}
	if raw.NumFound == nil || raw.Docs == nil {
		return nil, source.WrapError(source.OpenLibrary, op, id, source.Invalidf("missing numFound or docs"))
	}
	return &raw, nil
}

// Raw API response types.

type rawSearch struct {
	NumFound *int     `json:"numFound"`
	Start    int      `json:"start"`
	Docs     []rawDoc `json:"docs"`
}

type rawDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	Subject          []string `json:"subject"`
	Language         []string `json:"language"`
	RatingsAverage   float64  `json:"ratings_average"`
	EbookAccess      string   `json:"ebook_access"`
	IDGutenberg      []string `json:"id_project_gutenberg"`
	IDGoodreads      []string `json:"id_goodreads"`
	IDAmazon         []string `json:"id_amazon"`
}

func (d rawDoc) toBook() *Book {
	return &Book{
		Key:            d.Key,
		Title:          d.Title,
		Authors:        d.AuthorName,
		FirstPublished: d.FirstPublishYear,
		ISBNs:          d.ISBN,
		Subjects:       d.Subject,
		Languages:      d.Language,
		Rating:         d.RatingsAverage,
		EbookAccess:    d.EbookAccess,
		GutenbergIDs:   d.IDGutenberg,
		GoodreadsIDs:   d.IDGoodreads,
		AmazonIDs:      d.IDAmazon,
	}
}
