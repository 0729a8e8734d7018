package handlers

import (
	"context"
	"encoding/json"
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

const (
	// DefaultReplyTimeout is the timeout for generating one agent reply
	DefaultReplyTimeout = 30 * time.Second
	// DefaultConversationModel is the default model for lead conversations
	DefaultConversationModel = "gemini-2.5-flash"
	// MaxHistoryTurns is how many past turns are included in the prompt
	MaxHistoryTurns = 10
)

// ConversationConfig holds configuration for the ConversationHandler
type ConversationConfig struct {
	// Provider selects and configures the LLM backend
	Provider provider.Config
	// Timeout for generating each reply
	Timeout time.Duration
}

// ConversationHandler drives the lead-facing sales agent. Every reply is a
// structured assessment of the conversation, not just text.
type ConversationHandler struct {
	config         ConversationConfig
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	usageTracker   *UsageTrackerHandler
}

// SetUsageTracker enables usage tracking for generated replies
func (h *ConversationHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// NewConversationHandler creates a new ConversationHandler instance
func NewConversationHandler(config ConversationConfig) (*ConversationHandler, error) {
	if config.Provider.Model == "" {
		config.Provider.Model = DefaultConversationModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultReplyTimeout
	}

	ctx := context.Background()

	llm, err := provider.NewModel(ctx, config.Provider)
	if err != nil {
		log.Printf("[ConversationHandler] Failed to create model: %v", err)
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	salesAgent, err := llmagent.New(llmagent.Config{
		Name:        "sales_conversation_agent",
		Model:       llm,
		Description: "An AI sales assistant that talks to real-estate leads in Egyptian Arabic and assesses their buying readiness.",
		Instruction: buildSalesInstruction(),
	})
	if err != nil {
		log.Printf("[ConversationHandler] Failed to create agent: %v", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        "sales_conversation",
		Agent:          salesAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Printf("[ConversationHandler] Failed to create runner: %v", err)
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.Printf("[ConversationHandler] Successfully initialized with model: %s", config.Provider.Model)

	return &ConversationHandler{
		config:         config,
		agent:          salesAgent,
		runner:         r,
		sessionService: sessionService,
	}, nil
}

// buildSalesInstruction creates the instruction prompt for the sales agent
func buildSalesInstruction() string {
	return `You are a professional real-estate sales assistant for an Egyptian brokerage.
You chat with potential property buyers over WhatsApp.

CONVERSATION RULES:
- Reply in the same language the lead writes in (Egyptian Arabic or English)
- Be warm, concise and helpful; never pushy
- Your goal is to understand what the lead wants to buy, their budget, and how soon
- Never invent listings, prices or availability
- If the lead is angry or complaining, de-escalate and recommend a human follow-up

ASSESSMENT:
Alongside the reply, assess the conversation:
- intent: one of "inquiry", "pricing", "purchase_intent", "negotiation", "complaint"
- sentiment: one of "positive", "neutral", "negative", "hesitant"
- readiness: one of "hot", "warm", "cold" (how close to buying)
- opportunity_score: 0-100 estimate of deal likelihood
- lead_score_change: how much this message should move the internal lead
  score, between -1.0 and 1.0
- recommended_action: short next step for the sales team
- should_alert_team: true when a human should take over now (ready to buy,
  asking for a call, or complaining)

OUTPUT FORMAT:
You MUST respond with ONLY a valid JSON object in this exact format (no markdown, no code blocks, no explanations):
{
  "response": "the message to send back to the lead",
  "intent": "inquiry",
  "sentiment": "neutral",
  "readiness": "warm",
  "opportunity_score": 40,
  "lead_score_change": 0.2,
  "recommended_action": "ask for budget range",
  "should_alert_team": false
}`
}

// Reply generates the agent's structured reply to one inbound lead message.
// When the provider fails, a canned fallback reply is returned instead of an
// error so the lead always hears back; the fallback is flagged for review.
func (h *ConversationHandler) Reply(ctx context.Context, lead *dto.Lead, history []dto.ConversationTurn, message string) *dto.AgentReply {
	prompt := h.buildConversationPrompt(lead, history, message)
	startTime := time.Now()
	track := func(output string, success bool, errMsg *string) {
		if h.usageTracker != nil {
			leadID := &lead.ID
			h.usageTracker.TrackConversation(leadID, h.config.Provider.Model, prompt, output, startTime, success, errMsg)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	userID := "system"
	createResp, err := h.sessionService.Create(ctx, &session.CreateRequest{
		AppName: "sales_conversation",
		UserID:  userID,
	})
	if err != nil {
		log.Printf("[ConversationHandler] Failed to create session: %v", err)
		msg := err.Error()
		track("", false, &msg)
		return fallbackReply(message)
	}
	sessionID := createResp.Session.ID()
	defer func() {
		_ = h.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   "sales_conversation",
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	var responseText string
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	log.Printf("[ConversationHandler] Generating reply for lead %s (session: %s)", lead.ID, sessionID)

	for event, err := range h.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			log.Printf("[ConversationHandler] Error during reply generation: %v", err)
			msg := err.Error()
			track(responseText, false, &msg)
			return fallbackReply(message)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				if part.Text != "" {
					responseText += part.Text
				}
			}
		}
	}

	reply, err := parseAgentReply(responseText)
	if err != nil {
		log.Printf("[ConversationHandler] Failed to parse agent reply: %v", err)
		msg := err.Error()
		track(responseText, false, &msg)
		return fallbackReply(message)
	}
	track(responseText, true, nil)
	return reply
}

// buildConversationPrompt assembles lead context, recent history and the new
// message into one prompt.
func (h *ConversationHandler) buildConversationPrompt(lead *dto.Lead, history []dto.ConversationTurn, message string) string {
	var b strings.Builder

	b.WriteString("LEAD PROFILE:\n")
	if lead.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	}
	fmt.Fprintf(&b, "Status: %s\n", lead.Status)
	fmt.Fprintf(&b, "Quality: %s (score %.1f)\n", lead.Quality, lead.Score)
	if lead.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", lead.Notes)
	}

	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "Lead: %s\n", turn.Message)
			fmt.Fprintf(&b, "You: %s\n", turn.Response)
		}
	}

	fmt.Fprintf(&b, "\nNEW MESSAGE FROM LEAD:\n%s\n", message)
	b.WriteString("\nRespond with ONLY the JSON object.")
	return b.String()
}

// parseAgentReply decodes the model output into an AgentReply, tolerating
// markdown fences and stray text around the JSON object.
func parseAgentReply(response string) (*dto.AgentReply, error) {
	response = stripCodeFences(response)

	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in agent response")
	}

	var reply dto.AgentReply
	if err := json.Unmarshal([]byte(response[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("failed to decode agent reply: %w", err)
	}
	if reply.Response == "" {
		return nil, fmt.Errorf("agent reply has no response text")
	}

	// Clamp model output into sane bounds
	if reply.OpportunityScore < 0 {
		reply.OpportunityScore = 0
	}
	if reply.OpportunityScore > 100 {
		reply.OpportunityScore = 100
	}
	if reply.ScoreChange > 1.0 {
		reply.ScoreChange = 1.0
	}
	if reply.ScoreChange < -1.0 {
		reply.ScoreChange = -1.0
	}

	return &reply, nil
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// around its JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// fallbackReply produces the canned reply used when the provider is down.
// It alerts the team so the conversation gets human attention.
func fallbackReply(message string) *dto.AgentReply {
	response := "شكرا لتواصلك معنا! أحد مستشارينا هيرد عليك في أقرب وقت."
	if DetectLanguage(message) == LangEnglish {
		response = "Thanks for reaching out! One of our consultants will get back to you shortly."
	}

	return &dto.AgentReply{
		Response:          response,
		Intent:            dto.IntentInquiry,
		Sentiment:         "neutral",
		Readiness:         dto.ReadinessWarm,
		RecommendedAction: "manual review: automated assistant unavailable",
		ShouldAlertTeam:   true,
		Fallback:          true,
	}
}
