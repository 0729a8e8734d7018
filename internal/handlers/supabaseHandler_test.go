package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupabaseHandler_MissingURL(t *testing.T) {
	handler, err := NewSupabaseHandler("", "test-key")

	assert.Nil(t, handler)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "supabase URL is required")
}

func TestNewSupabaseHandler_MissingKey(t *testing.T) {
	handler, err := NewSupabaseHandler("https://test.supabase.co", "")

	assert.Nil(t, handler)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "supabase key is required")
}

func TestNewSupabaseHandler_BothMissing(t *testing.T) {
	handler, err := NewSupabaseHandler("", "")

	assert.Nil(t, handler)
	assert.Error(t, err)
}

func TestNewSupabaseHandler_Valid(t *testing.T) {
	handler, err := NewSupabaseHandler("https://test.supabase.co", "test-key")

	assert.NoError(t, err)
	assert.NotNil(t, handler)
}

// capturedRequest records one PostgREST round-trip seen by the mock server.
type capturedRequest struct {
	method string
	path   string
	query  string
	prefer string
	row    map[string]interface{}
}

func TestUpsertLeadByPhone_SingleAtomicWriteWithLatestAttributes(t *testing.T) {
	var calls []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		var row map[string]interface{}
		if len(payload) > 0 {
			var rows []map[string]interface{}
			if err := json.Unmarshal(payload, &rows); err == nil && len(rows) > 0 {
				row = rows[0]
			} else {
				_ = json.Unmarshal(payload, &row)
			}
		}
		calls = append(calls, capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			prefer: strings.Join(r.Header.Values("Prefer"), ","),
			row:    row,
		})
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"lead-1","phone":"01012345678","name":"New Name"}]`)
	}))
	defer srv.Close()

	handler, err := NewSupabaseHandler(srv.URL, "test-key")
	require.NoError(t, err)

	id, err := handler.UpsertLeadByPhone(&dto.Lead{
		Phone:   "01012345678",
		Name:    "New Name",
		Status:  dto.StatusNew,
		Source:  dto.SourceHunt,
		Score:   3.0,
		Quality: dto.QualityWarm,
	})
	require.NoError(t, err)
	assert.Equal(t, "lead-1", id)

	// One POST, no preparatory read and no follow-up patch
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.True(t, strings.HasSuffix(call.path, "/leads"))
	assert.Contains(t, call.query, "on_conflict=phone")
	assert.Contains(t, call.prefer, "resolution=merge-duplicates")

	// Latest attributes ride along; re-discovery overwrites stale values
	require.NotNil(t, call.row)
	assert.Equal(t, "New Name", call.row["name"])
	assert.Equal(t, dto.SourceHunt, call.row["source"])
	assert.Equal(t, 3.0, call.row["score"])
}

func TestListLeads_AppliesPagination(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	handler, err := NewSupabaseHandler(srv.URL, "test-key")
	require.NoError(t, err)

	_, err = handler.ListLeads(dto.LeadFilter{Limit: 25, Offset: 50})
	require.NoError(t, err)

	assert.Equal(t, "25", gotQuery.Get("limit"))
	assert.Equal(t, "50", gotQuery.Get("offset"))
}

func TestListLeads_DefaultAndCappedPageSize(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	handler, err := NewSupabaseHandler(srv.URL, "test-key")
	require.NoError(t, err)

	_, err = handler.ListLeads(dto.LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, "50", gotQuery.Get("limit"))
	assert.Equal(t, "0", gotQuery.Get("offset"))

	_, err = handler.ListLeads(dto.LeadFilter{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, "200", gotQuery.Get("limit"))
}
