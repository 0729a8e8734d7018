package dto

import "time"

// Lead status lifecycle values
const (
	StatusNew         = "new"
	StatusContacted   = "contacted"
	StatusQualified   = "qualified"
	StatusNegotiating = "negotiating"
	StatusWon         = "won"
	StatusLost        = "lost"
	StatusNurturing   = "nurturing"
)

// Lead source channel tags
const (
	SourceFacebookAd    = "facebook_ad"
	SourceInstagramAd   = "instagram_ad"
	SourceGoogleAd      = "google_ad"
	SourceLinkedInAd    = "linkedin_ad"
	SourceOrganicSearch = "organic_search"
	SourceSocialMedia   = "social_media"
	SourceReferral      = "referral"
	SourceWebsite       = "website"
	SourceWhatsApp      = "whatsapp"
	SourceHunt          = "hunt"
	SourceManual        = "manual"
	SourceOther         = "other"
)

// Lead quality buckets derived from the score
const (
	QualityHot  = "hot"
	QualityWarm = "warm"
	QualityCold = "cold"
)

// Score bounds for a lead
const (
	MinScore = 0.0
	MaxScore = 5.0
)

// LeadStatuses lists every valid lead status, in lifecycle order.
var LeadStatuses = []string{
	StatusNew, StatusContacted, StatusQualified, StatusNegotiating,
	StatusWon, StatusLost, StatusNurturing,
}

// Lead represents a lead record in the leads table.
// The normalized phone number is the upsert key: re-discovering the same
// phone updates the existing record instead of creating a duplicate.
type Lead struct {
	ID            string     `json:"id,omitempty"`
	Phone         string     `json:"phone"`
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email,omitempty"`
	Company       string     `json:"company,omitempty"`
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	Quality       string     `json:"quality,omitempty"` // hot/warm/cold
	Tier          string     `json:"tier,omitempty"`    // reject/good/excellent for hunted leads
	Score         float64    `json:"score"`
	Notes         string     `json:"notes,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty"`
	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
}

// LeadCreate represents the incoming create-lead request body
// @Description Payload for creating a lead; phone is validated and normalized to the 11-digit national format
type LeadCreate struct {
	// Phone number in any local formatting (normalized before storage)
	Phone string `json:"phone" binding:"required" example:"010 1234 5678"`
	// Contact name
	Name string `json:"name,omitempty" example:"Ahmed Samir"`
	// Contact email
	Email string `json:"email,omitempty" binding:"omitempty,email" example:"ahmed@example.com"`
	// Company name
	Company string `json:"company,omitempty"`
	// Source channel tag (defaults to manual)
	Source string `json:"source,omitempty" example:"facebook_ad"`
	// Free-text notes
	Notes string `json:"notes,omitempty"`
	// Whether to send the WhatsApp welcome message
	SendWelcome bool `json:"send_welcome,omitempty"`
}

// LeadUpdate represents a partial lead update
// @Description Partial update; only non-nil fields are applied
type LeadUpdate struct {
	Name   *string  `json:"name,omitempty"`
	Email  *string  `json:"email,omitempty" binding:"omitempty,email"`
	Phone  *string  `json:"phone,omitempty"`
	Status *string  `json:"status,omitempty"`
	Score  *float64 `json:"score,omitempty"`
	Notes  *string  `json:"notes,omitempty"`
}

// Lead listing pagination bounds
const (
	DefaultLeadPageSize = 50
	MaxLeadPageSize     = 200
)

// LeadFilter holds search predicates for lead queries
type LeadFilter struct {
	Statuses []string
	Sources  []string
	// Search is matched as a substring over name, email and phone
	Search string
	// CreatedBy restricts results to one user's leads
	CreatedBy string
	// Limit caps the page size; zero means DefaultLeadPageSize
	Limit int
	// Offset skips that many rows, newest first
	Offset int
}

// Interaction types
const (
	InteractionCall     = "call"
	InteractionEmail    = "email"
	InteractionWhatsApp = "whatsapp"
	InteractionMeeting  = "meeting"
	InteractionNote     = "note"
	InteractionSMS      = "sms"
)

// Interaction directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Interaction is an append-only record of one touch with a lead.
type Interaction struct {
	ID          string    `json:"id,omitempty"`
	LeadID      string    `json:"lead_id"`
	Type        string    `json:"type"`
	Direction   string    `json:"direction"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task statuses
const (
	TaskPending = "pending"
	TaskDone    = "done"
)

// Task is a follow-up item, created automatically by CRM logic or manually.
type Task struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Status    string     `json:"status"`
	LeadID    string     `json:"lead_id,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// DashboardStats aggregates the numbers shown on the CRM dashboard.
type DashboardStats struct {
	TotalLeads    int            `json:"total_leads"`
	NewThisWeek   int            `json:"new_this_week"`
	HotLeads      int            `json:"hot_leads"`
	PendingTasks  int            `json:"pending_tasks"`
	LeadsByStatus map[string]int `json:"leads_by_status"`
	LeadsBySource map[string]int `json:"leads_by_source"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ClampScore bounds a score to the valid [MinScore, MaxScore] range.
func ClampScore(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// QualityForScore maps a score to the hot/warm/cold bucket.
func QualityForScore(score float64) string {
	switch {
	case score >= 4.0:
		return QualityHot
	case score >= 2.5:
		return QualityWarm
	default:
		return QualityCold
	}
}

// ValidStatus reports whether s is one of the enumerated lead statuses.
func ValidStatus(s string) bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}
