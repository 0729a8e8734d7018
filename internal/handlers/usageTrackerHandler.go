package handlers

import (
	"log"
	"time"

	"brilliox/leadhunter-backend/internal/dto"
)

const (
	// CharsPerToken is the approximate number of characters per token for estimation
	CharsPerToken = 4
)

// metricStore persists usage metrics.
type metricStore interface {
	InsertUsageMetric(metric *dto.UsageMetricInput) error
}

// UsageTrackerHandler tracks LLM usage across the agent handlers
type UsageTrackerHandler struct {
	store   metricStore
	pricing map[string]dto.TokenPricing
}

// NewUsageTrackerHandler creates a new UsageTrackerHandler
func NewUsageTrackerHandler(store metricStore) *UsageTrackerHandler {
	return &UsageTrackerHandler{
		store:   store,
		pricing: dto.DefaultTokenPricing(),
	}
}

// EstimateTokens estimates token count from text length
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// CalculateCost calculates the estimated cost for a given operation
func (h *UsageTrackerHandler) CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := h.pricing[model]
	if !ok {
		// Default to flash pricing if model not found
		pricing = h.pricing["gemini-2.5-flash"]
	}

	inputCost := float64(inputTokens) * pricing.InputPricePerMTok / 1_000_000
	outputCost := float64(outputTokens) * pricing.OutputPricePerMTok / 1_000_000

	return inputCost + outputCost
}

// TrackOperationInput contains the data needed to track an operation
type TrackOperationInput struct {
	LeadID        *string
	OperationType dto.OperationType
	Model         string
	InputText     string
	OutputText    string
	StartTime     time.Time
	Success       bool
	ErrorMessage  *string
}

// TrackOperation records an LLM operation for usage tracking
func (h *UsageTrackerHandler) TrackOperation(input TrackOperationInput) error {
	if h.store == nil {
		log.Printf("[UsageTracker] Store not configured, skipping tracking")
		return nil
	}

	inputTokens := EstimateTokens(input.InputText)
	outputTokens := EstimateTokens(input.OutputText)
	totalTokens := inputTokens + outputTokens
	durationMs := time.Since(input.StartTime).Milliseconds()
	cost := h.CalculateCost(input.Model, inputTokens, outputTokens)

	metric := dto.UsageMetricInput{
		LeadID:          input.LeadID,
		OperationType:   input.OperationType,
		Model:           input.Model,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		TotalTokens:     totalTokens,
		EstimatedCostUS: cost,
		DurationMs:      durationMs,
		Success:         input.Success,
		ErrorMessage:    input.ErrorMessage,
	}

	if err := h.store.InsertUsageMetric(&metric); err != nil {
		log.Printf("[UsageTracker] Failed to insert usage metric: %v", err)
		return err
	}

	log.Printf("[UsageTracker] Tracked %s: tokens=%d (in=%d, out=%d), cost=$%.6f, duration=%dms, success=%v",
		input.OperationType, totalTokens, inputTokens, outputTokens, cost, durationMs, input.Success)

	return nil
}

// TrackConversation is a convenience method for tracking sales agent replies
func (h *UsageTrackerHandler) TrackConversation(leadID *string, model, inputText, outputText string, startTime time.Time, success bool, errorMsg *string) {
	_ = h.TrackOperation(TrackOperationInput{
		LeadID:        leadID,
		OperationType: dto.OperationConversation,
		Model:         model,
		InputText:     inputText,
		OutputText:    outputText,
		StartTime:     startTime,
		Success:       success,
		ErrorMessage:  errorMsg,
	})
}

// TrackAdminCommand is a convenience method for tracking command mappings
func (h *UsageTrackerHandler) TrackAdminCommand(model, inputText, outputText string, startTime time.Time, success bool, errorMsg *string) {
	_ = h.TrackOperation(TrackOperationInput{
		OperationType: dto.OperationAdminCommand,
		Model:         model,
		InputText:     inputText,
		OutputText:    outputText,
		StartTime:     startTime,
		Success:       success,
		ErrorMessage:  errorMsg,
	})
}

// TrackMarketingChat is a convenience method for tracking marketing chat turns
func (h *UsageTrackerHandler) TrackMarketingChat(model, inputText, outputText string, startTime time.Time, success bool, errorMsg *string) {
	_ = h.TrackOperation(TrackOperationInput{
		OperationType: dto.OperationMarketingChat,
		Model:         model,
		InputText:     inputText,
		OutputText:    outputText,
		StartTime:     startTime,
		Success:       success,
		ErrorMessage:  errorMsg,
	})
}
