package dto

import "time"

// Hunt run statuses
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// HuntRequest represents the incoming hunt trigger request body
// @Description Parameters for a background lead hunt over one city/intent pair
type HuntRequest struct {
	// Buyer-intent phrase to hunt for, e.g. "شقة في التجمع"
	Query string `json:"query" binding:"required,min=2,max=200" example:"شقة للإيجار"`
	// City to expand into sub-areas
	City string `json:"city" binding:"required,min=2,max=50" example:"القاهرة"`
	// Maximum results requested per search call (default 20)
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1,max=100" example:"20"`
}

// HuntRun tracks one background search run from acceptance to completion.
type HuntRun struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Query       string     `json:"query"`
	City        string     `json:"city"`
	Status      string     `json:"status"`
	LeadsFound  int        `json:"leads_found"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// HuntLog is the write-once summary recorded at the end of every run.
type HuntLog struct {
	ID             string    `json:"id,omitempty"`
	RunID          string    `json:"run_id"`
	Query          string    `json:"query"`
	City           string    `json:"city"`
	ResultCount    int       `json:"result_count"`
	DomainsScanned []string  `json:"domains_scanned"`
	DurationMS     int64     `json:"duration_ms"`
	Mode           string    `json:"mode"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}
