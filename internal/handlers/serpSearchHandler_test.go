package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeThrottle hands out keys round-robin without sleeping and records calls.
type fakeThrottle struct {
	keys      []string
	acquires  int
	cooldowns int
}

func (f *fakeThrottle) Acquire(ctx context.Context) (string, error) {
	key := f.keys[f.acquires%len(f.keys)]
	f.acquires++
	return key, nil
}

func (f *fakeThrottle) Cooldown(ctx context.Context) {
	f.cooldowns++
}

// fakePage builds a SerpAPI-shaped response with n organic results starting
// at the given position, plus a next-page link when more is true.
func fakePage(n, startPos int, more bool) map[string]interface{} {
	var organic []interface{}
	for i := 0; i < n; i++ {
		organic = append(organic, map[string]interface{}{
			"position": float64(i + 1),
			"title":    fmt.Sprintf("result %d", startPos+i),
			"link":     fmt.Sprintf("https://example.com/%d", startPos+i),
			"snippet":  "مطلوب شقة للتواصل 01012345678",
		})
	}
	resp := map[string]interface{}{
		"organic_results": organic,
	}
	pagination := map[string]interface{}{"current": float64(startPos/ResultsPerPage + 1)}
	if more {
		pagination["next"] = "https://serpapi.com/search.json?start=next"
	}
	resp["serpapi_pagination"] = pagination
	return resp
}

func TestSearch_SinglePage(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a"}}
	handler := NewSerpSearchHandler(throttle)
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		assert.Equal(t, "key-a", apiKey)
		assert.Equal(t, "ar", parameters["hl"])
		assert.Equal(t, "eg", parameters["gl"])
		return fakePage(10, 1, false), nil
	}

	resp, err := handler.Search(context.Background(), SearchParams{Q: "مطلوب شقة", Num: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.TotalResults)
	assert.Equal(t, 1, resp.PagesFetched)
	assert.Equal(t, 1, throttle.acquires)
}

func TestSearch_MultiplePagesSequentialPositions(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a", "key-b"}}
	handler := NewSerpSearchHandler(throttle)

	page := 0
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		page++
		return fakePage(10, (page-1)*10+1, true), nil
	}

	resp, err := handler.Search(context.Background(), SearchParams{Q: "مطلوب ارض", Num: 25})
	require.NoError(t, err)
	assert.Equal(t, 25, resp.TotalResults)
	assert.Equal(t, 3, resp.PagesFetched)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Position)
	}
	// Keys rotate across page fetches
	assert.Equal(t, 3, throttle.acquires)
}

func TestSearch_StopsWhenNoNextPage(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a"}}
	handler := NewSerpSearchHandler(throttle)
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		return fakePage(4, 1, false), nil
	}

	resp, err := handler.Search(context.Background(), SearchParams{Q: "villa", Num: 50})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.TotalResults)
	assert.Equal(t, 1, resp.PagesFetched)
}

func TestSearch_RateLimitRetriesOnceAfterCooldown(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a", "key-b"}}
	handler := NewSerpSearchHandler(throttle)

	calls := 0
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("SerpAPI returned 429 Too Many Requests")
		}
		assert.Equal(t, "key-b", apiKey)
		return fakePage(3, 1, false), nil
	}

	resp, err := handler.Search(context.Background(), SearchParams{Q: "مطلوب شقة"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalResults)
	assert.Equal(t, 1, throttle.cooldowns)
	assert.Equal(t, 2, throttle.acquires)
}

func TestSearch_RateLimitFailsAfterSecondRejection(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a"}}
	handler := NewSerpSearchHandler(throttle)
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		return nil, errors.New("rate limit exceeded")
	}

	_, err := handler.Search(context.Background(), SearchParams{Q: "مطلوب شقة"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 1, throttle.cooldowns)
}

func TestSearch_PartialResultsOnLaterPageError(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a"}}
	handler := NewSerpSearchHandler(throttle)

	page := 0
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		page++
		if page == 1 {
			return fakePage(10, 1, true), nil
		}
		return nil, errors.New("upstream timeout")
	}

	resp, err := handler.Search(context.Background(), SearchParams{Q: "مطلوب مكتب", Num: 30})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.TotalResults)
	assert.Equal(t, 1, resp.PagesFetched)
}

func TestSearch_FirstPageErrorPropagates(t *testing.T) {
	throttle := &fakeThrottle{keys: []string{"key-a"}}
	handler := NewSerpSearchHandler(throttle)
	handler.fetch = func(parameters map[string]string, apiKey string) (map[string]interface{}, error) {
		return nil, errors.New("upstream timeout")
	}

	_, err := handler.Search(context.Background(), SearchParams{Q: "مطلوب شقة"})
	require.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		params   SearchParams
		expected string
	}{
		{
			name:     "no exclusions",
			params:   SearchParams{Q: "مطلوب شقة التجمع"},
			expected: "مطلوب شقة التجمع",
		},
		{
			name:     "single exclusion",
			params:   SearchParams{Q: "wanted apartment", ExcludeDomains: []string{"olx.com.eg"}},
			expected: "wanted apartment -site:olx.com.eg",
		},
		{
			name:     "multiple exclusions",
			params:   SearchParams{Q: "مطلوب ارض", ExcludeDomains: []string{"instagram.com", "linkedin.com"}},
			expected: "مطلوب ارض -site:instagram.com -site:linkedin.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildQuery(tt.params))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(errors.New("got 429 from provider")))
	assert.True(t, isRateLimited(errors.New("Too Many Requests")))
	assert.True(t, isRateLimited(errors.New("monthly rate limit reached")))
	assert.True(t, isRateLimited(fmt.Errorf("wrapped: %w", ErrRateLimited)))
	assert.False(t, isRateLimited(errors.New("connection refused")))
	assert.False(t, isRateLimited(nil))
}
