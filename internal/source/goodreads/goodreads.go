// Package goodreads scrapes Goodreads search result pages. Goodreads has no
// public API, so only search is supported; lookups by id are not.
package goodreads

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/folioapp/folio-server/internal/source"
)

var (
	bookIDRegex    = regexp.MustCompile(`/book/show/(\d+)`)
	avgRatingRegex = regexp.MustCompile(`(\d+(?:\.\d+)?) avg rating`)
	numRatingRegex = regexp.MustCompile(`([\d,]+) ratings?`)
	publishedRegex = regexp.MustCompile(`published (\d{3,4})`)
	totalRegex     = regexp.MustCompile(`about ([\d,]+) results`)
)

// Book is a Goodreads search hit. Description is Markdown converted from the
// row's schema.org description markup, when the row carries one.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	AvgRating   float64  `json:"avgRating"`
	NumRatings  int      `json:"numRatings"`
	Published   int      `json:"published,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	CoverURL    string   `json:"coverUrl,omitempty"`
}

// Summary implements source.SourceBook.
func (b *Book) Summary() source.Summary {
	return source.Summary{
		Source:     source.Goodreads,
		ExternalID: b.ID,
		Title:      b.Title,
		Authors:    b.Authors,
		Year:       b.Published,
		Rating:     b.AvgRating,
	}
}

// Client scrapes Goodreads.
type Client struct {
	transport *source.Transport
	baseURL   string
	header    http.Header
}

// New creates a Goodreads adapter.
func New(t *source.Transport, baseURL string) *Client {
	return &Client{
		transport: t,
		baseURL:   baseURL,
		header:    http.Header{"Accept": {"text/html"}},
	}
}

// Source implements source.Adapter.
func (c *Client) Source() source.Source { return source.Goodreads }

// FetchBooks scrapes one page of search results. Goodreads serves a fixed
// page size, so q.Limit only trims the returned page.
func (c *Client) FetchBooks(ctx context.Context, q source.Query, page int) (*source.Result, error) {
	page = source.Page(page)
	params := url.Values{
		"q":           {q.Terms()},
		"page":        {strconv.Itoa(page)},
		"search_type": {"books"},
	}
	u, err := source.BuildURL(c.baseURL, "/search", params)
	if err != nil {
		return nil, source.WrapError(source.Goodreads, "fetch", "", err)
	}

	body, err := c.transport.Get(ctx, source.Goodreads, u, c.header)
	if err != nil {
		return nil, source.WrapError(source.Goodreads, "fetch", "", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, source.WrapError(source.Goodreads, "fetch", "", source.Invalidf("parse html: %v", err))
	}
	if err := validatePage(doc); err != nil {
		return nil, source.WrapError(source.Goodreads, "fetch", "", err)
	}

	books := extractBooks(doc, c.baseURL)
	if q.Limit > 0 && len(books) > q.Limit {
		books = books[:q.Limit]
	}

	out := &source.Result{CurrentPage: page, TotalResults: extractTotal(doc, len(books))}
	for _, b := range books {
		out.Books = append(out.Books, b)
	}
	return out, nil
}

// validatePage rejects pages that are neither a result table nor an
// explicit empty result, e.g. a login wall or a layout change.
func validatePage(doc *goquery.Document) error {
	if doc.Find("table.tableList").Length() > 0 {
		return nil
	}
	if strings.Contains(cleanText(doc.Find("h3.searchSubNavContainer").Text()), "No results") {
		return nil
	}
	return source.Invalidf("search results table not found")
}

func extractBooks(doc *goquery.Document, baseURL string) []*Book {
	var books []*Book
	doc.Find(`table.tableList tr[itemtype="http://schema.org/Book"]`).Each(func(_ int, row *goquery.Selection) {
		href := row.Find("a.bookTitle").AttrOr("href", "")
		match := bookIDRegex.FindStringSubmatch(href)
		title := cleanText(row.Find("a.bookTitle span[itemprop=name]").Text())
		if len(match) < 2 || title == "" {
			return
		}

		b := &Book{
			ID:       match[1],
			Title:    title,
			URL:      absoluteURL(baseURL, href),
			CoverURL: row.Find("img.bookCover").AttrOr("src", ""),
		}
		row.Find("a.authorName span[itemprop=name]").Each(func(_ int, s *goquery.Selection) {
			if name := cleanText(s.Text()); name != "" {
				b.Authors = append(b.Authors, name)
			}
		})

		mini := cleanText(row.Find("span.minirating").Text())
		if m := avgRatingRegex.FindStringSubmatch(mini); len(m) == 2 {
			b.AvgRating, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := numRatingRegex.FindStringSubmatch(mini); len(m) == 2 {
			b.NumRatings, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		}
		if m := publishedRegex.FindStringSubmatch(cleanText(row.Find("span.greyText").Text())); len(m) == 2 {
			b.Published, _ = strconv.Atoi(m[1])
		}
		if html, err := row.Find("[itemprop=description]").First().Html(); err == nil {
			b.Description = source.Markdown(html)
		}
		books = append(books, b)
	})
	return books
}

func extractTotal(doc *goquery.Document, fallback int) int {
	m := totalRegex.FindStringSubmatch(cleanText(doc.Find("h3.searchSubNavContainer").Text()))
	if len(m) < 2 {
		return fallback
	}
	total, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return fallback
	}
	return total
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	ref.RawQuery = ""
	return b.ResolveReference(ref).String()
}
