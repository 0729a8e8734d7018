package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	g "github.com/serpapi/google-search-results-golang"
)

const (
	// ResultsPerPage is the number of results SerpAPI returns per page
	ResultsPerPage = 10
	// MaxResultsPerRequest is the maximum results we allow per request
	MaxResultsPerRequest = 100
	// MaxPagesToFetch is the maximum number of pages we'll fetch to prevent excessive API calls
	MaxPagesToFetch = 10
)

// ErrRateLimited is returned when SerpAPI rejects a request for quota reasons.
var ErrRateLimited = errors.New("search provider rate limited")

// searchThrottle paces outgoing SerpAPI calls and hands out the next API key.
// Acquire blocks until the call is allowed to go out; Cooldown is called after
// a provider-side 429 before the single retry.
type searchThrottle interface {
	Acquire(ctx context.Context) (string, error)
	Cooldown(ctx context.Context)
}

type SerpSearchHandler struct {
	throttle searchThrottle

	// fetch performs one SerpAPI page request. Overridable in tests.
	fetch func(parameters map[string]string, apiKey string) (map[string]interface{}, error)
}

type SearchParams struct {
	Q              string
	Hl             string   // language used in the query
	Gl             string   // country to use for the search
	ExcludeDomains []string // domains to exclude from search results (e.g., "instagram.com")
	Num            int      // total number of results to return (will fetch multiple pages if needed)
	Start          int      // result offset for pagination (0 = first page)
}

// SearchResult represents a single organic search result
// @Description A single organic search result from Google
type SearchResult struct {
	// Position of the result in the search results
	Position int `json:"position" example:"1"`
	// Title of the search result
	Title string `json:"title" example:"مطلوب شقة في مدينة نصر"`
	// URL of the search result
	Link string `json:"link" example:"https://www.facebook.com/groups/example/posts/123"`
	// Displayed URL shown in search results
	DisplayedLink string `json:"displayed_link" example:"www.facebook.com"`
	// Snippet/description of the search result
	Snippet string `json:"snippet" example:"مطلوب شقة للشراء كاش في مدينة نصر للتواصل 01012345678"`
}

// Pagination represents the pagination info from SerpAPI
// @Description Pagination information for search results
type Pagination struct {
	// Current page number
	Current int `json:"current" example:"1"`
	// URL for the next page of results
	Next string `json:"next,omitempty" example:"https://serpapi.com/search.json?engine=google&start=10"`
}

// SearchResponse contains only organic results and pagination
// @Description Response containing organic search results and pagination info
type SearchResponse struct {
	// Total number of results returned
	TotalResults int `json:"total_results" example:"30"`
	// Number of pages fetched to get these results
	PagesFetched int `json:"pages_fetched" example:"3"`
	// List of organic search results
	Results []SearchResult `json:"organic_results"`
	// Pagination information (for the last page fetched)
	Pagination Pagination `json:"serpapi_pagination"`
}

func NewSerpSearchHandler(throttle searchThrottle) *SerpSearchHandler {
	return &SerpSearchHandler{
		throttle: throttle,
		fetch: func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
			search := g.NewGoogleSearch(parameters, apiKey)
			return search.GetJSON()
		},
	}
}

// buildQuery appends -site: exclusions to the base query
func buildQuery(params SearchParams) string {
	query := params.Q
	for _, domain := range params.ExcludeDomains {
		query += " -site:" + domain
	}
	return query
}

// isRateLimited reports whether err looks like a provider quota rejection.
// SerpAPI surfaces 429s as plain error strings, so this is a text match.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

// fetchPage fetches a single page of results from SerpAPI, retrying once after
// a cooldown if the provider answers with a rate limit.
func (h *SerpSearchHandler) fetchPage(ctx context.Context, query, hl, gl string, start int) ([]SearchResult, *Pagination, error) {
	parameters := map[string]string{
		"engine": "google",
		"q":      query,
		"hl":     hl,
		"gl":     gl,
		"num":    fmt.Sprintf("%d", ResultsPerPage),
		"start":  fmt.Sprintf("%d", start),
	}

	apiKey, err := h.throttle.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	resp, err := h.fetch(parameters, apiKey)
	if err != nil && isRateLimited(err) {
		log.Printf("[SerpSearchHandler] Rate limited at start=%d, cooling down and retrying once", start)
		h.throttle.Cooldown(ctx)
		apiKey, err = h.throttle.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		resp, err = h.fetch(parameters, apiKey)
		if err != nil && isRateLimited(err) {
			return nil, nil, fmt.Errorf("%w: start=%d: %v", ErrRateLimited, start, err)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch page at start=%d: %w", start, err)
	}

	var results []SearchResult
	var pagination *Pagination

	// Parse organic_results
	if organicResults, ok := resp["organic_results"].([]interface{}); ok {
		for _, item := range organicResults {
			if itemMap, ok := item.(map[string]interface{}); ok {
				results = append(results, SearchResult{
					Position:      getInt(itemMap, "position"),
					Title:         getString(itemMap, "title"),
					Link:          getString(itemMap, "link"),
					DisplayedLink: getString(itemMap, "displayed_link"),
					Snippet:       getString(itemMap, "snippet"),
				})
			}
		}
	}

	// Parse serpapi_pagination
	if paginationMap, ok := resp["serpapi_pagination"].(map[string]interface{}); ok {
		pagination = &Pagination{
			Current: getInt(paginationMap, "current"),
			Next:    getString(paginationMap, "next"),
		}
	}

	return results, pagination, nil
}

// Search performs a Google search and fetches multiple pages if needed to meet
// the requested number of results. Results keep sequential positions across
// pages. Defaults target Egyptian Arabic results.
func (h *SerpSearchHandler) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	query := buildQuery(params)

	hl := params.Hl
	if hl == "" {
		hl = "ar"
	}
	gl := params.Gl
	if gl == "" {
		gl = "eg"
	}

	// Set default and max values for total results requested
	totalRequested := params.Num
	if totalRequested <= 0 {
		totalRequested = ResultsPerPage // default to 10
	} else if totalRequested > MaxResultsPerRequest {
		totalRequested = MaxResultsPerRequest // cap at 100
	}

	// Calculate how many pages we need to fetch
	pagesNeeded := (totalRequested + ResultsPerPage - 1) / ResultsPerPage // ceiling division
	if pagesNeeded > MaxPagesToFetch {
		pagesNeeded = MaxPagesToFetch
	}

	result := &SearchResponse{
		Results: []SearchResult{},
	}

	currentStart := params.Start
	pagesFetched := 0

	// Fetch pages until we have enough results or no more pages available
	for pagesFetched < pagesNeeded && len(result.Results) < totalRequested {
		pageResults, pagination, err := h.fetchPage(ctx, query, hl, gl, currentStart)
		if err != nil {
			// If this is the first page, return the error
			// If we already have some results, return what we have
			if pagesFetched == 0 {
				return nil, err
			}
			log.Printf("[SerpSearchHandler] Page fetch failed after %d pages, returning partial results: %v", pagesFetched, err)
			break
		}

		pagesFetched++

		// Append results with sequential positions across all pages
		for _, res := range pageResults {
			if len(result.Results) >= totalRequested {
				break
			}
			res.Position = len(result.Results) + 1
			result.Results = append(result.Results, res)
		}

		// Update pagination info (keep the last one)
		if pagination != nil {
			result.Pagination = *pagination
		}

		// No next page or an empty page means we've reached the end
		if pagination == nil || pagination.Next == "" {
			break
		}
		if len(pageResults) == 0 {
			break
		}

		currentStart += ResultsPerPage
	}

	result.TotalResults = len(result.Results)
	result.PagesFetched = pagesFetched

	return result, nil
}

// Helper functions to safely extract values from map[string]interface{}
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if val, ok := m[key].(float64); ok {
		return int(val)
	}
	return 0
}
