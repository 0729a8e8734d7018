package dto

import "time"

// OperationType represents the type of LLM operation performed
type OperationType string

const (
	OperationConversation  OperationType = "conversation_reply"
	OperationAdminCommand  OperationType = "admin_command"
	OperationMarketingChat OperationType = "marketing_chat"
)

// UsageMetric represents a single LLM usage record
// @Description Record of a single LLM operation for usage tracking
type UsageMetric struct {
	ID              string        `json:"id"`
	LeadID          *string       `json:"lead_id,omitempty"`
	OperationType   OperationType `json:"operation_type"`
	Model           string        `json:"model"`
	InputTokens     int           `json:"input_tokens"`
	OutputTokens    int           `json:"output_tokens"`
	TotalTokens     int           `json:"total_tokens"`
	EstimatedCostUS float64       `json:"estimated_cost_usd"`
	DurationMs      int64         `json:"duration_ms"`
	Success         bool          `json:"success"`
	ErrorMessage    *string       `json:"error_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// UsageMetricInput is the input for creating a new usage metric
type UsageMetricInput struct {
	LeadID          *string       `json:"lead_id,omitempty"`
	OperationType   OperationType `json:"operation_type"`
	Model           string        `json:"model"`
	InputTokens     int           `json:"input_tokens"`
	OutputTokens    int           `json:"output_tokens"`
	TotalTokens     int           `json:"total_tokens"`
	EstimatedCostUS float64       `json:"estimated_cost_usd"`
	DurationMs      int64         `json:"duration_ms"`
	Success         bool          `json:"success"`
	ErrorMessage    *string       `json:"error_message,omitempty"`
}

// TokenPricing holds per-model token pricing
type TokenPricing struct {
	Model              string
	InputPricePerMTok  float64 // Price per million input tokens
	OutputPricePerMTok float64 // Price per million output tokens
}

// DefaultTokenPricing returns pricing for supported models (Gemini + OpenRouter)
func DefaultTokenPricing() map[string]TokenPricing {
	return map[string]TokenPricing{
		// Google Gemini models (direct API)
		"gemini-2.5-flash": {
			Model:              "gemini-2.5-flash",
			InputPricePerMTok:  0.075,
			OutputPricePerMTok: 0.30,
		},
		"gemini-2.5-pro": {
			Model:              "gemini-2.5-pro",
			InputPricePerMTok:  1.25,
			OutputPricePerMTok: 10.00,
		},
		// OpenRouter-routed models
		"google/gemini-2.5-flash": {
			Model:              "google/gemini-2.5-flash",
			InputPricePerMTok:  0.075,
			OutputPricePerMTok: 0.30,
		},
		"anthropic/claude-3.5-sonnet": {
			Model:              "anthropic/claude-3.5-sonnet",
			InputPricePerMTok:  3.00,
			OutputPricePerMTok: 15.00,
		},
		"openai/gpt-4o": {
			Model:              "openai/gpt-4o",
			InputPricePerMTok:  2.50,
			OutputPricePerMTok: 10.00,
		},
	}
}
