package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // Free text matched against title and author

	// Filters
	Subject      string // Exact normalized subject
	Language     string // ISO 639-1 code
	Downloadable *bool  // nil matches both
	MinRating    float64

	// Pagination
	Limit  int
	Offset int

	// Sorting: "relevance" (default), "rating", "recent"
	SortBy string

	IncludeFacets bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		IncludeFacets: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"tookMs"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets"`
}

// SearchHit represents a single matching book.
type SearchHit struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
	Rating   float64  `json:"rating"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Subjects  []FacetCount `json:"subjects,omitempty"`
	Languages []FacetCount `json:"languages,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)
	if params.IncludeFacets {
		searchRequest.AddFacet("subject", bleve.NewFacetRequest("subject", 20))
		searchRequest.AddFacet("language", bleve.NewFacetRequest("language", 20))
	}
	searchRequest.Fields = []string{"title", "author", "subject", "rating"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:       hit.ID,
			Score:    hit.Score,
			Authors:  stringsField(hit.Fields["author"]),
			Subjects: stringsField(hit.Fields["subject"]),
		}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if r, ok := hit.Fields["rating"].(float64); ok {
			searchHit.Rating = r
		}
		result.Hits = append(result.Hits, searchHit)
	}

	if params.IncludeFacets {
		result.Facets = SearchFacets{
			Subjects:  facetCounts(searchResult, "subject"),
			Languages: facetCounts(searchResult, "language"),
		}
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params. Text matches are
// OR-ed across fields; filters are AND-ed with the text match.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if params.Query != "" {
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(params.Query)
		authorMatch.SetField("author")
		authorMatch.SetBoost(1.5)

		// Typo tolerance on the title
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, authorMatch, fuzzyQuery}
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Subject != "" {
		tq := bleve.NewTermQuery(params.Subject)
		tq.SetField("subject")
		queries = append(queries, tq)
	}

	if params.Language != "" {
		tq := bleve.NewTermQuery(params.Language)
		tq.SetField("language")
		queries = append(queries, tq)
	}

	if params.Downloadable != nil {
		bq := bleve.NewBoolFieldQuery(*params.Downloadable)
		bq.SetField("downloadable")
		queries = append(queries, bq)
	}

	if params.MinRating > 0 {
		minRating := params.MinRating
		maxRating := math.MaxFloat64
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&minRating, &maxRating, &inclusive, &inclusive)
		rq.SetField("rating")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "rating":
		req.SortBy([]string{"-rating", "-_score"})
	case "recent":
		req.SortBy([]string{"-created_at"})
	default:
		req.SortBy([]string{"-_score"})
	}
}

func facetCounts(result *bleve.SearchResult, field string) []FacetCount {
	facet, ok := result.Facets[field]
	if !ok || facet.Terms == nil {
		return nil
	}

	var counts []FacetCount
	for _, term := range facet.Terms.Terms() {
		counts = append(counts, FacetCount{Value: term.Term, Count: term.Count})
	}
	return counts
}

// stringsField reads a stored field that Bleve returns as a string for a
// single value and as []any for several.
func stringsField(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
