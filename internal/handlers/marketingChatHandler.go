package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"brilliox/leadhunter-backend/internal/dto"
	"brilliox/leadhunter-backend/internal/model/provider"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// MarketingChatConfig holds configuration for the MarketingChatHandler
type MarketingChatConfig struct {
	Provider provider.Config
	Timeout  time.Duration
}

// MarketingChatHandler answers free-form marketing questions from staff.
// Unlike the sales agent it returns plain text, not a structured assessment.
type MarketingChatHandler struct {
	config         MarketingChatConfig
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	usageTracker   *UsageTrackerHandler
}

// SetUsageTracker enables usage tracking for chat turns
func (h *MarketingChatHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// NewMarketingChatHandler creates a new MarketingChatHandler instance
func NewMarketingChatHandler(config MarketingChatConfig) (*MarketingChatHandler, error) {
	if config.Provider.Model == "" {
		config.Provider.Model = DefaultConversationModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultReplyTimeout
	}

	ctx := context.Background()

	llm, err := provider.NewModel(ctx, config.Provider)
	if err != nil {
		log.Printf("[MarketingChatHandler] Failed to create model: %v", err)
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	chatAgent, err := llmagent.New(llmagent.Config{
		Name:        "marketing_chat_agent",
		Model:       llm,
		Description: "A marketing consultant for an Egyptian real-estate brokerage.",
		Instruction: buildMarketingInstruction(),
	})
	if err != nil {
		log.Printf("[MarketingChatHandler] Failed to create agent: %v", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        "marketing_chat",
		Agent:          chatAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Printf("[MarketingChatHandler] Failed to create runner: %v", err)
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.Printf("[MarketingChatHandler] Successfully initialized with model: %s", config.Provider.Model)

	return &MarketingChatHandler{
		config:         config,
		agent:          chatAgent,
		runner:         r,
		sessionService: sessionService,
	}, nil
}

func buildMarketingInstruction() string {
	return `You are a marketing consultant for an Egyptian real-estate brokerage.
Staff ask you about campaign ideas, ad copy, audience targeting and lead
nurturing. Answer in the language the question was asked in (Egyptian Arabic
or English). Be practical and specific to the Egyptian property market.
Keep answers under 300 words.`
}

// Chat answers one staff message. When the provider is unreachable a canned
// reply flagged as fallback is returned instead of an error.
func (h *MarketingChatHandler) Chat(ctx context.Context, message string) *dto.ChatResponse {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	startTime := time.Now()
	track := func(output string, success bool, errMsg *string) {
		if h.usageTracker != nil {
			h.usageTracker.TrackMarketingChat(h.config.Provider.Model, message, output, startTime, success, errMsg)
		}
	}

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: message},
		},
	}

	userID := "system"
	createResp, err := h.sessionService.Create(ctx, &session.CreateRequest{
		AppName: "marketing_chat",
		UserID:  userID,
	})
	if err != nil {
		log.Printf("[MarketingChatHandler] Failed to create session: %v", err)
		msg := err.Error()
		track("", false, &msg)
		return fallbackChatResponse(message)
	}
	sessionID := createResp.Session.ID()
	defer func() {
		_ = h.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   "marketing_chat",
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	var responseText string
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for event, err := range h.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			log.Printf("[MarketingChatHandler] Error during chat: %v", err)
			msg := err.Error()
			track(responseText, false, &msg)
			return fallbackChatResponse(message)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				if part.Text != "" {
					responseText += part.Text
				}
			}
		}
	}

	responseText = strings.TrimSpace(responseText)
	if responseText == "" {
		msg := "empty response from provider"
		track("", false, &msg)
		return fallbackChatResponse(message)
	}

	track(responseText, true, nil)
	return &dto.ChatResponse{Response: responseText}
}

// GenerateAdCopy turns a product brief into ready-to-post ad copy. The
// brief is rendered into a prompt and answered by the same agent as Chat,
// so provider outages degrade to the same flagged fallback.
func (h *MarketingChatHandler) GenerateAdCopy(ctx context.Context, req dto.AdCopyRequest) *dto.AdCopyResponse {
	reply := h.Chat(ctx, buildAdCopyPrompt(req))
	return &dto.AdCopyResponse{Copy: reply.Response, Fallback: reply.Fallback}
}

func buildAdCopyPrompt(req dto.AdCopyRequest) string {
	platform := req.Platform
	if platform == "" {
		platform = "facebook"
	}

	var b strings.Builder
	b.WriteString("Write ad copy for the following offer:\n")
	fmt.Fprintf(&b, "Product: %s\n", req.ProductName)
	if req.Description != "" {
		fmt.Fprintf(&b, "Details: %s\n", req.Description)
	}
	if req.TargetAudience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.TargetAudience)
	}
	if req.UniqueSellingPoint != "" {
		fmt.Fprintf(&b, "Selling point: %s\n", req.UniqueSellingPoint)
	}
	if req.CallToAction != "" {
		fmt.Fprintf(&b, "Call to action: %s\n", req.CallToAction)
	}
	fmt.Fprintf(&b, "Platform: %s\n", platform)
	b.WriteString(`
Produce three variations: one AIDA, one PAS and one benefit-led.
Each variation needs a headline of at most 40 characters, primary text of
at most 125 characters, a description of at most 30 characters and a call
to action. Write in the language of the brief.`)
	return b.String()
}

func fallbackChatResponse(message string) *dto.ChatResponse {
	response := "المساعد غير متاح حاليا، حاول مرة أخرى بعد قليل."
	if DetectLanguage(message) == LangEnglish {
		response = "The assistant is unavailable right now, please try again in a moment."
	}
	return &dto.ChatResponse{Response: response, Fallback: true}
}
