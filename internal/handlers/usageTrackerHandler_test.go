package handlers

import (
	"errors"
	"testing"
	"time"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetricStore struct {
	metrics   []*dto.UsageMetricInput
	insertErr error
}

func (f *fakeMetricStore) InsertUsageMetric(metric *dto.UsageMetricInput) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.metrics = append(f.metrics, metric)
	return nil
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char rounds up", "a", 1},
		{"exact boundary", "abcd", 1},
		{"boundary plus one", "abcde", 2},
		{"longer text", "this is a longer piece of text!!", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestCalculateCost(t *testing.T) {
	tracker := NewUsageTrackerHandler(nil)

	// 1M input + 1M output tokens of flash
	cost := tracker.CalculateCost("gemini-2.5-flash", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.075+0.30, cost, 1e-9)

	// Unknown models fall back to flash pricing
	unknown := tracker.CalculateCost("some/unknown-model", 1_000_000, 1_000_000)
	assert.Equal(t, cost, unknown)

	// Pro is priced higher than flash
	pro := tracker.CalculateCost("gemini-2.5-pro", 1_000_000, 1_000_000)
	assert.Greater(t, pro, cost)
}

func TestTrackOperation_RecordsMetric(t *testing.T) {
	store := &fakeMetricStore{}
	tracker := NewUsageTrackerHandler(store)

	leadID := "lead-1"
	err := tracker.TrackOperation(TrackOperationInput{
		LeadID:        &leadID,
		OperationType: dto.OperationConversation,
		Model:         "gemini-2.5-flash",
		InputText:     "abcdefgh", // 2 tokens
		OutputText:    "abcd",     // 1 token
		StartTime:     time.Now().Add(-50 * time.Millisecond),
		Success:       true,
	})
	require.NoError(t, err)

	require.Len(t, store.metrics, 1)
	m := store.metrics[0]
	assert.Equal(t, dto.OperationConversation, m.OperationType)
	assert.Equal(t, 2, m.InputTokens)
	assert.Equal(t, 1, m.OutputTokens)
	assert.Equal(t, 3, m.TotalTokens)
	assert.True(t, m.Success)
	require.NotNil(t, m.LeadID)
	assert.Equal(t, "lead-1", *m.LeadID)
	assert.GreaterOrEqual(t, m.DurationMs, int64(50))
	assert.Greater(t, m.EstimatedCostUS, 0.0)
}

func TestTrackOperation_NoStoreIsNoop(t *testing.T) {
	tracker := NewUsageTrackerHandler(nil)

	err := tracker.TrackOperation(TrackOperationInput{
		OperationType: dto.OperationMarketingChat,
		Model:         "gemini-2.5-flash",
		StartTime:     time.Now(),
	})
	assert.NoError(t, err)
}

func TestTrackOperation_StoreErrorSurfaces(t *testing.T) {
	store := &fakeMetricStore{insertErr: errors.New("connection refused")}
	tracker := NewUsageTrackerHandler(store)

	err := tracker.TrackOperation(TrackOperationInput{
		OperationType: dto.OperationAdminCommand,
		Model:         "gemini-2.5-flash",
		StartTime:     time.Now(),
	})
	assert.Error(t, err)
}

func TestTrackConvenienceMethods(t *testing.T) {
	store := &fakeMetricStore{}
	tracker := NewUsageTrackerHandler(store)

	now := time.Now()
	errMsg := "timeout"
	tracker.TrackConversation(nil, "gemini-2.5-flash", "in", "out", now, true, nil)
	tracker.TrackAdminCommand("gemini-2.5-flash", "in", "", now, false, &errMsg)
	tracker.TrackMarketingChat("gemini-2.5-flash", "in", "out", now, true, nil)

	require.Len(t, store.metrics, 3)
	assert.Equal(t, dto.OperationConversation, store.metrics[0].OperationType)
	assert.Equal(t, dto.OperationAdminCommand, store.metrics[1].OperationType)
	require.NotNil(t, store.metrics[1].ErrorMessage)
	assert.Equal(t, "timeout", *store.metrics[1].ErrorMessage)
	assert.Equal(t, dto.OperationMarketingChat, store.metrics[2].OperationType)
}
