package dto

import "time"

// Agent readiness levels (the agent's estimate of buying urgency)
const (
	ReadinessHot  = "hot"
	ReadinessWarm = "warm"
	ReadinessCold = "cold"
)

// Recognized agent intents
const (
	IntentInquiry        = "inquiry"
	IntentPricing        = "pricing"
	IntentPurchaseIntent = "purchase_intent"
	IntentNegotiation    = "negotiation"
	IntentComplaint      = "complaint"
)

// AgentReply is the structured result of one conversational agent call.
// Fields the provider omits or mangles are filled by the fallback path.
type AgentReply struct {
	Response          string  `json:"response"`
	Intent            string  `json:"intent"`
	Sentiment         string  `json:"sentiment"` // positive/neutral/negative/hesitant
	Readiness         string  `json:"readiness"`
	OpportunityScore  int     `json:"opportunity_score"` // 0-100
	RecommendedAction string  `json:"recommended_action,omitempty"`
	ShouldAlertTeam   bool    `json:"should_alert_team"`
	ScoreChange       float64 `json:"lead_score_change"`
	// Fallback marks replies produced without the provider; these
	// conversations are flagged for manual review.
	Fallback bool `json:"fallback,omitempty"`
}

// ConversationTurn is one append-only row of the conversation audit trail.
type ConversationTurn struct {
	ID               string    `json:"id,omitempty"`
	LeadID           string    `json:"lead_id"`
	Message          string    `json:"message"`
	Response         string    `json:"response"`
	Intent           string    `json:"intent,omitempty"`
	Sentiment        string    `json:"sentiment,omitempty"`
	Readiness        string    `json:"readiness,omitempty"`
	OpportunityScore int       `json:"opportunity_score,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// IncomingMessage represents an inbound lead message
// @Description A message received from a lead over some channel
type IncomingMessage struct {
	Message string `json:"message" binding:"required,max=2000"`
	// Channel defaults to whatsapp
	Channel string `json:"channel,omitempty" example:"whatsapp"`
}

// ChatRequest represents a marketing-assistant chat message
// @Description Free-form staff chat with the marketing assistant
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=4000"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
	Fallback bool   `json:"fallback,omitempty"`
}

// AdCopyRequest is the product brief ad copy is generated from
// @Description Product brief for ad copy generation
type AdCopyRequest struct {
	ProductName        string `json:"product_name" binding:"required,max=200"`
	Description        string `json:"description,omitempty" binding:"max=2000"`
	TargetAudience     string `json:"target_audience,omitempty" binding:"max=500"`
	UniqueSellingPoint string `json:"unique_selling_point,omitempty" binding:"max=500"`
	CallToAction       string `json:"call_to_action,omitempty" binding:"max=100"`
	// Platform defaults to facebook
	Platform string `json:"platform,omitempty" example:"facebook"`
}

// AdCopyResponse carries the generated ad copy: three variations in AIDA,
// PAS and benefit-led styles, as raw assistant text.
type AdCopyResponse struct {
	Copy     string `json:"copy"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Admin command actions the adapter may return. The adapter only maps text
// to a descriptor; execution stays with the caller.
const (
	ActionGetStats       = "get_stats"
	ActionAddUser        = "add_user"
	ActionCreateCampaign = "create_campaign"
	ActionListLeads      = "list_leads"
	ActionSendBroadcast  = "send_broadcast"
	ActionUnknown        = "unknown"
)

// AdminCommandRequest represents a free-text admin command
// @Description Natural-language admin command to map to an action descriptor
type AdminCommandRequest struct {
	Command string `json:"command" binding:"required,max=1000" example:"show me this week's stats"`
}

// AdminAction is the descriptor an admin command maps to.
type AdminAction struct {
	Action string            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
	// Confidence is the adapter's own estimate, 0-100
	Confidence int `json:"confidence,omitempty"`
}
