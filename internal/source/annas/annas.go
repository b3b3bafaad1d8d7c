// Package annas adapts the Anna's Archive search API (served through RapidAPI).
package annas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/folioapp/folio-server/internal/completion"
	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/source"
)

// Result limits enforced by the API.
const (
	MinLimit     = 10
	MaxLimit     = 200
	DefaultLimit = MinLimit
)

// Book is an Anna's Archive search hit. Size is the raw "value+unit"
// string the API reports, e.g. "2.3MB".
type Book struct {
	MD5      string `json:"md5"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre,omitempty"`
	Format   string `json:"format"`
	Year     int    `json:"year,omitempty"`
	Size     string `json:"size,omitempty"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// Summary implements source.SourceBook.
func (b *Book) Summary() source.Summary {
	s := source.Summary{
		Source:     source.AnnasArchive,
		ExternalID: b.MD5,
		Title:      b.Title,
		Year:       b.Year,
		Ebook:      b.Format != "",
	}
	if b.Author != "" {
		s.Authors = splitAuthors(b.Author)
	}
	if b.Genre != "" {
		s.Subjects = []string{b.Genre}
	}
	return s
}

// Client talks to the Anna's Archive API.
type Client struct {
	transport *source.Transport
	baseURL   string
	header    http.Header
}

// New creates an Anna's Archive adapter. apiKey is the RapidAPI key.
func New(t *source.Transport, baseURL, apiKey string) *Client {
	header := http.Header{}
	if apiKey != "" {
		header.Set("X-RapidAPI-Key", apiKey)
		if u, err := url.Parse(baseURL); err == nil {
			header.Set("X-RapidAPI-Host", u.Host)
		}
	}
	return &Client{transport: t, baseURL: baseURL, header: header}
}

// Source implements source.Adapter.
func (c *Client) Source() source.Source { return source.AnnasArchive }

// ClampLimit keeps a requested result count within what the API accepts.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(max(limit, MinLimit), MaxLimit)
}

// searchParams maps a generic query onto the API's query string.
func searchParams(q source.Query, page int) url.Values {
	limit := ClampLimit(q.Limit)
	params := url.Values{
		"q":     {q.Terms()},
		"limit": {strconv.Itoa(limit)},
		"skip":  {strconv.Itoa((page - 1) * limit)},
		"sort":  {"mostRelevant"},
	}
	if q.Language != "" {
		params.Set("lang", q.Language)
	}
	return params
}

// FetchBooks searches Anna's Archive.
func (c *Client) FetchBooks(ctx context.Context, q source.Query, page int) (*source.Result, error) {
	page = source.Page(page)
	u, err := source.BuildURL(c.baseURL, "/search", searchParams(q, page))
	if err != nil {
		return nil, source.WrapError(source.AnnasArchive, "fetch", "", err)
	}

	var raw rawSearch
	if err := c.transport.GetJSON(ctx, source.AnnasArchive, u, c.header, &raw); err != nil {
		return nil, source.WrapError(source.AnnasArchive, "fetch", "", err)
	}
	if raw.Books == nil {
		return nil, source.WrapError(source.AnnasArchive, "fetch", "", source.Invalidf("missing books array"))
	}

	out := &source.Result{TotalResults: raw.Total, CurrentPage: page}
	for _, b := range raw.Books {
		if b.MD5 == "" {
			return nil, source.WrapError(source.AnnasArchive, "fetch", "", source.Invalidf("book %q missing md5", b.Title))
		}
		out.Books = append(out.Books, b.toBook())
	}
	if out.TotalResults < len(out.Books) {
		out.TotalResults = len(out.Books)
	}
	return out, nil
}

// Downloads resolves the mirror URLs for an md5.
func (c *Client) Downloads(ctx context.Context, md5 string) ([]string, error) {
	u, err := source.BuildURL(c.baseURL, "/download", url.Values{"md5": {md5}})
	if err != nil {
		return nil, source.WrapError(source.AnnasArchive, "downloads", md5, err)
	}

	var urls []string
	if err := c.transport.GetJSON(ctx, source.AnnasArchive, u, c.header, &urls); err != nil {
		return nil, source.WrapError(source.AnnasArchive, "downloads", md5, err)
	}
	out := urls[:0]
	for _, link := range urls {
		if link = strings.TrimSpace(link); link != "" {
			out = append(out, link)
		}
	}
	return out, nil
}

// FindDownload searches by title and resolves download info for the first
// hit. A hit without a format takes it from its mirror URLs. It returns nil
// without error when nothing is found or the format stays unknown.
func (c *Client) FindDownload(ctx context.Context, title string) (*domain.DownloadInfo, error) {
	res, err := c.FetchBooks(ctx, source.Query{Title: title}, 1)
	if err != nil {
		return nil, err
	}
	if len(res.Books) == 0 {
		return nil, nil
	}
	first := res.Books[0].(*Book)

	urls, err := c.Downloads(ctx, first.MD5)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, nil
	}

	format := first.Format
	for _, u := range urls {
		if format != "" {
			break
		}
		format = completion.FormatFromURL(u)
	}
	// A download of unknown format can never complete a book's link.
	if format == "" {
		return nil, nil
	}

	info := &domain.DownloadInfo{URLs: urls, Format: format}
	if first.Size != "" {
		// An unparseable size is dropped rather than failing the download.
		if size, err := domain.ParseSize(first.Size); err == nil {
			info.Size = &size
		}
	}
	return info, nil
}

// Raw API response types.

type rawSearch struct {
	Books []rawBook `json:"books"`
	Total int       `json:"total"`
}

type rawBook struct {
	MD5    string `json:"md5"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ImgURL string `json:"imgUrl"`
	Size   string `json:"size"`
	Genre  string `json:"genre"`
	Format string `json:"format"`
	Year   string `json:"year"`
}

func (r rawBook) toBook() *Book {
	year, _ := strconv.Atoi(strings.TrimSpace(r.Year))
	return &Book{
		MD5:      r.MD5,
		Title:    r.Title,
		Author:   r.Author,
		Genre:    r.Genre,
		Format:   strings.ToLower(r.Format),
		Year:     year,
		Size:     r.Size,
		CoverURL: r.ImgURL,
	}
}

func splitAuthors(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ";") {
		for name := range strings.SplitSeq(part, "&") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// String is used in log lines.
func (b *Book) String() string {
	return fmt.Sprintf("%s (%s)", b.Title, b.MD5)
}
