// Package openrouter bridges OpenRouter's OpenAI-compatible chat API into
// the ADK model.LLM interface, so the conversational agents can run on
// OpenRouter-hosted models the same way they run on Gemini. The agents here
// never stream and never declare tools, so the bridge only implements the
// blocking text-completion path.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	// DefaultBaseURL is the OpenRouter API endpoint
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout for one completion request
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenRouter model
type Config struct {
	// APIKey is the OpenRouter API key (required)
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests
	BaseURL string
	// HTTPClient allows a custom HTTP client (optional)
	HTTPClient *http.Client
	// Timeout for requests (defaults to 120s)
	Timeout time.Duration
	// MaxConcurrent caps in-flight requests (defaults per NewPacer)
	MaxConcurrent int
	// MinDelay spaces out consecutive requests (defaults per NewPacer)
	MinDelay time.Duration
	// SiteName is sent as X-Title for OpenRouter rankings (optional)
	SiteName string
	// SiteURL is sent as HTTP-Referer for OpenRouter rankings (optional)
	SiteURL string
}

// Model implements model.LLM against the OpenRouter chat completions API.
// All requests pass through a shared pacer so concurrent agents cannot
// stack up unbounded provider calls.
type Model struct {
	name       string
	config     Config
	httpClient *http.Client
	pacer      *Pacer
}

// NewModel creates a Model for the named OpenRouter model id
// (e.g. "google/gemini-2.5-flash", "anthropic/claude-3.5-sonnet").
func NewModel(ctx context.Context, modelName string, config *Config) (*Model, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("modelName is required")
	}

	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Model{
		name:       modelName,
		config:     cfg,
		httpClient: httpClient,
		pacer:      NewPacer(cfg.MaxConcurrent, cfg.MinDelay),
	}, nil
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements the model.LLM interface. Streaming is not
// supported: every agent in this service runs with StreamingModeNone, and
// the structured-JSON replies are parsed whole anyway.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("openrouter bridge does not support streaming"))
			return
		}

		chatReq := m.buildRequest(req)

		resp, err := m.complete(ctx, chatReq)
		if err != nil {
			yield(nil, err)
			return
		}
		if resp.Error != nil {
			yield(nil, fmt.Errorf("OpenRouter API error: %s (code: %v)", resp.Error.Message, resp.Error.Code))
			return
		}

		yield(m.buildResponse(resp), nil)
	}
}

// complete performs one paced, blocking chat-completions call.
func (m *Model) complete(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	release, err := m.pacer.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	if m.config.SiteName != "" {
		httpReq.Header.Set("X-Title", m.config.SiteName)
	}
	if m.config.SiteURL != "" {
		httpReq.Header.Set("HTTP-Referer", m.config.SiteURL)
	}

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// buildRequest flattens the ADK request into OpenAI chat messages. Parts
// that carry no text (function calls, blobs) are skipped.
func (m *Model) buildRequest(req *model.LLMRequest) *chatRequest {
	messages := make([]chatMessage, 0, len(req.Contents))
	for _, content := range req.Contents {
		var textParts []string
		for _, part := range content.Parts {
			if part.Text != "" {
				textParts = append(textParts, part.Text)
			}
		}
		messages = append(messages, chatMessage{
			Role:    toOpenAIRole(content.Role),
			Content: strings.Join(textParts, "\n"),
		})
	}

	chatReq := &chatRequest{
		Model:    m.name,
		Messages: messages,
	}

	if req.Config != nil {
		chatReq.Temperature = req.Config.Temperature
		chatReq.TopP = req.Config.TopP
		if req.Config.MaxOutputTokens != 0 {
			maxTokens := req.Config.MaxOutputTokens
			chatReq.MaxTokens = &maxTokens
		}
		chatReq.Stop = req.Config.StopSequences
	}

	return chatReq
}

// buildResponse converts the first choice and usage counts into an ADK
// response marked as a complete turn.
func (m *Model) buildResponse(resp *chatResponse) *model.LLMResponse {
	llmResp := &model.LLMResponse{
		TurnComplete: true,
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		llmResp.Content = &genai.Content{
			Role: "model",
			Parts: []*genai.Part{
				{Text: choice.Message.Content},
			},
		}
		llmResp.FinishReason = toFinishReason(choice.FinishReason)
	}

	if resp.Usage != nil {
		llmResp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		}
	}

	return llmResp
}

func toOpenAIRole(role string) string {
	switch role {
	case "model":
		return "assistant"
	case "user", "system":
		return role
	default:
		return role
	}
}

func toFinishReason(reason string) genai.FinishReason {
	switch reason {
	case "stop":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}
