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

// DefaultCommandTimeout is the timeout for mapping one admin command
const DefaultCommandTimeout = 15 * time.Second

// validAdminActions enumerates everything MapCommand may return.
var validAdminActions = map[string]bool{
	dto.ActionGetStats:       true,
	dto.ActionAddUser:        true,
	dto.ActionCreateCampaign: true,
	dto.ActionListLeads:      true,
	dto.ActionSendBroadcast:  true,
	dto.ActionUnknown:        true,
}

// AdminCommandConfig holds configuration for the AdminCommandHandler
type AdminCommandConfig struct {
	Provider provider.Config
	Timeout  time.Duration
}

// AdminCommandHandler maps free-text admin commands onto the fixed action
// vocabulary. It only ever returns an action descriptor; executing the action
// is the caller's job.
type AdminCommandHandler struct {
	config         AdminCommandConfig
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	usageTracker   *UsageTrackerHandler
}

// SetUsageTracker enables usage tracking for command mappings
func (h *AdminCommandHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// NewAdminCommandHandler creates a new AdminCommandHandler instance
func NewAdminCommandHandler(config AdminCommandConfig) (*AdminCommandHandler, error) {
	if config.Provider.Model == "" {
		config.Provider.Model = DefaultConversationModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultCommandTimeout
	}

	ctx := context.Background()

	llm, err := provider.NewModel(ctx, config.Provider)
	if err != nil {
		log.Printf("[AdminCommandHandler] Failed to create model: %v", err)
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	commandAgent, err := llmagent.New(llmagent.Config{
		Name:        "admin_command_agent",
		Model:       llm,
		Description: "An AI agent that maps natural-language admin commands to CRM actions.",
		Instruction: buildAdminCommandInstruction(),
	})
	if err != nil {
		log.Printf("[AdminCommandHandler] Failed to create agent: %v", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        "admin_command",
		Agent:          commandAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Printf("[AdminCommandHandler] Failed to create runner: %v", err)
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.Printf("[AdminCommandHandler] Successfully initialized with model: %s", config.Provider.Model)

	return &AdminCommandHandler{
		config:         config,
		agent:          commandAgent,
		runner:         r,
		sessionService: sessionService,
	}, nil
}

// buildAdminCommandInstruction creates the instruction prompt for the command agent
func buildAdminCommandInstruction() string {
	return `You map an admin's natural-language command (Arabic or English) to exactly one CRM action.

AVAILABLE ACTIONS:
- "get_stats": show dashboard numbers, lead counts, performance
- "add_user": create a staff account (params: username, role)
- "create_campaign": start a marketing campaign (params: name, audience)
- "list_leads": show or filter leads (params: status, quality, limit)
- "send_broadcast": send a message to many leads (params: message, audience)
- "unknown": anything that does not clearly match one of the above

RULES:
- Never invent actions outside this list
- Pull obvious parameter values from the command text into params
- confidence is your own certainty, 0-100
- When in doubt, use "unknown" with low confidence

OUTPUT FORMAT:
Respond with ONLY a valid JSON object (no markdown, no code blocks):
{"action": "list_leads", "params": {"status": "qualified"}, "confidence": 90}`
}

// MapCommand maps one admin command to an action descriptor. Provider
// failures fall back to keyword rules so the admin surface keeps working.
func (h *AdminCommandHandler) MapCommand(ctx context.Context, command string) *dto.AdminAction {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	startTime := time.Now()
	track := func(output string, success bool, errMsg *string) {
		if h.usageTracker != nil {
			h.usageTracker.TrackAdminCommand(h.config.Provider.Model, command, output, startTime, success, errMsg)
		}
	}

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: fmt.Sprintf("COMMAND:\n%s\n\nRespond with ONLY the JSON object.", command)},
		},
	}

	userID := "system"
	createResp, err := h.sessionService.Create(ctx, &session.CreateRequest{
		AppName: "admin_command",
		UserID:  userID,
	})
	if err != nil {
		log.Printf("[AdminCommandHandler] Failed to create session: %v", err)
		msg := err.Error()
		track("", false, &msg)
		return mapCommandByKeywords(command)
	}
	sessionID := createResp.Session.ID()
	defer func() {
		_ = h.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   "admin_command",
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
			log.Printf("[AdminCommandHandler] Error during command mapping: %v", err)
			msg := err.Error()
			track(responseText, false, &msg)
			return mapCommandByKeywords(command)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				if part.Text != "" {
					responseText += part.Text
				}
			}
		}
	}

	action, err := parseAdminAction(responseText)
	if err != nil {
		log.Printf("[AdminCommandHandler] Failed to parse action: %v", err)
		msg := err.Error()
		track(responseText, false, &msg)
		return mapCommandByKeywords(command)
	}
	track(responseText, true, nil)
	return action
}

// parseAdminAction decodes and validates the model output. Actions outside
// the fixed vocabulary collapse to unknown.
func parseAdminAction(response string) (*dto.AdminAction, error) {
	response = stripCodeFences(response)

	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in command response")
	}

	var action dto.AdminAction
	if err := json.Unmarshal([]byte(response[start:end+1]), &action); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	if !validAdminActions[action.Action] {
		log.Printf("[AdminCommandHandler] Model returned unlisted action %q, collapsing to unknown", action.Action)
		action.Action = dto.ActionUnknown
		action.Params = nil
	}
	if action.Confidence < 0 {
		action.Confidence = 0
	}
	if action.Confidence > 100 {
		action.Confidence = 100
	}
	return &action, nil
}

// mapCommandByKeywords is the rule-based fallback used when the provider is
// unavailable.
func mapCommandByKeywords(command string) *dto.AdminAction {
	lower := strings.ToLower(command)

	switch {
	case containsAny(lower, []string{"stats", "dashboard", "احصائيات", "إحصائيات", "الارقام", "الأرقام"}):
		return &dto.AdminAction{Action: dto.ActionGetStats, Confidence: 50}
	case containsAny(lower, []string{"add user", "new user", "اضف مستخدم", "أضف مستخدم", "مستخدم جديد"}):
		return &dto.AdminAction{Action: dto.ActionAddUser, Confidence: 50}
	case containsAny(lower, []string{"campaign", "حملة"}):
		return &dto.AdminAction{Action: dto.ActionCreateCampaign, Confidence: 50}
	case containsAny(lower, []string{"broadcast", "send to all", "رسالة جماعية", "ابعت للكل"}):
		return &dto.AdminAction{Action: dto.ActionSendBroadcast, Confidence: 50}
	case containsAny(lower, []string{"leads", "lead", "عملاء", "العملاء"}):
		return &dto.AdminAction{Action: dto.ActionListLeads, Confidence: 50}
	}
	return &dto.AdminAction{Action: dto.ActionUnknown, Confidence: 0}
}
