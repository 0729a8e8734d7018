package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

// SupabaseHandler handles database operations using Supabase
type SupabaseHandler struct {
	client *supabase.Client
}

// NewSupabaseHandler creates a new SupabaseHandler instance
// url is the Supabase project URL (e.g., "https://xxx.supabase.co")
// key is the Supabase anon or service role key
func NewSupabaseHandler(url, key string) (*SupabaseHandler, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("supabase key is required")
	}

	log.Printf("[SupabaseHandler] Initializing with URL: %s", url)

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to create client: %v", err)
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseHandler{
		client: client,
	}, nil
}

// ---- Leads ----

// InsertLead inserts a new lead and returns the generated ID
func (h *SupabaseHandler) InsertLead(lead *dto.Lead) (string, error) {
	log.Printf("[SupabaseHandler] InsertLead: phone=%s, source=%s", lead.Phone, lead.Source)

	insertData := map[string]interface{}{
		"phone":   lead.Phone,
		"status":  lead.Status,
		"source":  lead.Source,
		"score":   lead.Score,
		"quality": lead.Quality,
	}
	if lead.Name != "" {
		insertData["name"] = lead.Name
	}
	if lead.Email != "" {
		insertData["email"] = lead.Email
	}
	if lead.Company != "" {
		insertData["company"] = lead.Company
	}
	if lead.Tier != "" {
		insertData["tier"] = lead.Tier
	}
	if lead.Notes != "" {
		insertData["notes"] = lead.Notes
	}
	if len(lead.Tags) > 0 {
		insertData["tags"] = lead.Tags
	}
	if lead.CreatedBy != "" {
		insertData["created_by"] = lead.CreatedBy
	}

	data, _, err := h.client.From("leads").Insert(insertData, false, "", "representation", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert lead: %v", err)
		return "", fmt.Errorf("failed to insert lead: %w", err)
	}

	var inserted []dto.Lead
	if err := json.Unmarshal(data, &inserted); err != nil {
		return "", fmt.Errorf("failed to parse insert response: %w", err)
	}
	if len(inserted) == 0 {
		return "", fmt.Errorf("no lead was inserted")
	}

	log.Printf("[SupabaseHandler] Lead inserted successfully: id=%s", inserted[0].ID)
	return inserted[0].ID, nil
}

// GetLeadByPhone returns the lead with the given normalized phone, or nil
// when no such lead exists.
func (h *SupabaseHandler) GetLeadByPhone(phone string) (*dto.Lead, error) {
	data, _, err := h.client.From("leads").Select("*", "exact", false).Eq("phone", phone).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query lead by phone: %w", err)
	}

	var leads []dto.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("failed to parse lead response: %w", err)
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return &leads[0], nil
}

// GetLead returns a lead by ID.
func (h *SupabaseHandler) GetLead(id string) (*dto.Lead, error) {
	data, _, err := h.client.From("leads").Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query lead: %w", err)
	}

	var leads []dto.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("failed to parse lead response: %w", err)
	}
	if len(leads) == 0 {
		return nil, fmt.Errorf("lead not found: %s", id)
	}
	return &leads[0], nil
}

// UpdateLead applies a partial column update to a lead.
func (h *SupabaseHandler) UpdateLead(id string, update map[string]interface{}) error {
	if len(update) == 0 {
		return nil
	}
	update["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	_, _, err := h.client.From("leads").Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to update lead %s: %v", id, err)
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return nil
}

// UpsertLeadByPhone writes the lead keyed on its phone number in one atomic
// upsert: re-discovery of a known phone overwrites the record with the
// latest attributes instead of duplicating it. The store's ON CONFLICT
// handling is what keeps two concurrent hunts from creating two rows for
// the same phone.
func (h *SupabaseHandler) UpsertLeadByPhone(lead *dto.Lead) (string, error) {
	upsertData := map[string]interface{}{
		"phone":      lead.Phone,
		"status":     lead.Status,
		"source":     lead.Source,
		"score":      lead.Score,
		"quality":    lead.Quality,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if lead.Name != "" {
		upsertData["name"] = lead.Name
	}
	if lead.Email != "" {
		upsertData["email"] = lead.Email
	}
	if lead.Company != "" {
		upsertData["company"] = lead.Company
	}
	if lead.Tier != "" {
		upsertData["tier"] = lead.Tier
	}
	if lead.Notes != "" {
		upsertData["notes"] = lead.Notes
	}
	if len(lead.Tags) > 0 {
		upsertData["tags"] = lead.Tags
	}
	if lead.CreatedBy != "" {
		upsertData["created_by"] = lead.CreatedBy
	}

	data, _, err := h.client.From("leads").Insert(upsertData, true, "phone", "representation", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to upsert lead %s: %v", lead.Phone, err)
		return "", fmt.Errorf("failed to upsert lead: %w", err)
	}

	var rows []dto.Lead
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", fmt.Errorf("failed to parse upsert response: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no lead was upserted")
	}

	log.Printf("[SupabaseHandler] UpsertLeadByPhone: phone=%s -> id=%s", lead.Phone, rows[0].ID)
	return rows[0].ID, nil
}

// ListLeads returns leads matching the filter, newest first.
func (h *SupabaseHandler) ListLeads(filter dto.LeadFilter) ([]dto.Lead, error) {
	query := h.client.From("leads").Select("*", "exact", false)

	if len(filter.Statuses) > 0 {
		query = query.In("status", filter.Statuses)
	}
	if len(filter.Sources) > 0 {
		query = query.In("source", filter.Sources)
	}
	if filter.CreatedBy != "" {
		query = query.Eq("created_by", filter.CreatedBy)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Or(fmt.Sprintf("name.ilike.%s,email.ilike.%s,phone.ilike.%s", pattern, pattern, pattern), "")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = dto.DefaultLeadPageSize
	}
	if limit > dto.MaxLeadPageSize {
		limit = dto.MaxLeadPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	data, _, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	var leads []dto.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("failed to parse leads response: %w", err)
	}

	log.Printf("[SupabaseHandler] ListLeads: %d rows returned", len(leads))
	return leads, nil
}

// DeleteLead removes a lead by ID.
func (h *SupabaseHandler) DeleteLead(id string) error {
	_, _, err := h.client.From("leads").Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

// ---- Interactions ----

// InsertInteraction appends one touch record for a lead.
func (h *SupabaseHandler) InsertInteraction(interaction *dto.Interaction) error {
	insertData := map[string]interface{}{
		"lead_id":     interaction.LeadID,
		"type":        interaction.Type,
		"direction":   interaction.Direction,
		"description": interaction.Description,
	}

	_, _, err := h.client.From("interactions").Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert interaction: %v", err)
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns a lead's interactions, newest first.
func (h *SupabaseHandler) ListInteractions(leadID string, limit int) ([]dto.Interaction, error) {
	query := h.client.From("interactions").Select("*", "exact", false).
		Eq("lead_id", leadID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	var interactions []dto.Interaction
	if err := json.Unmarshal(data, &interactions); err != nil {
		return nil, fmt.Errorf("failed to parse interactions response: %w", err)
	}
	return interactions, nil
}

// ---- Tasks ----

// InsertTask creates a follow-up task and returns its ID.
func (h *SupabaseHandler) InsertTask(task *dto.Task) (string, error) {
	log.Printf("[SupabaseHandler] InsertTask: title=%q, priority=%s", task.Title, task.Priority)

	insertData := map[string]interface{}{
		"title":    task.Title,
		"type":     task.Type,
		"priority": task.Priority,
		"status":   task.Status,
	}
	if task.LeadID != "" {
		insertData["lead_id"] = task.LeadID
	}
	if task.DueDate != nil {
		insertData["due_date"] = task.DueDate.UTC().Format(time.RFC3339)
	}

	data, _, err := h.client.From("tasks").Insert(insertData, false, "", "representation", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert task: %v", err)
		return "", fmt.Errorf("failed to insert task: %w", err)
	}

	var inserted []dto.Task
	if err := json.Unmarshal(data, &inserted); err != nil {
		return "", fmt.Errorf("failed to parse task response: %w", err)
	}
	if len(inserted) == 0 {
		return "", fmt.Errorf("no task was inserted")
	}
	return inserted[0].ID, nil
}

// ListTasks returns tasks, optionally restricted to one status or lead,
// soonest due first.
func (h *SupabaseHandler) ListTasks(status, leadID string) ([]dto.Task, error) {
	query := h.client.From("tasks").Select("*", "exact", false)
	if status != "" {
		query = query.Eq("status", status)
	}
	if leadID != "" {
		query = query.Eq("lead_id", leadID)
	}

	data, _, err := query.Order("due_date", &postgrest.OrderOpts{Ascending: true}).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var tasks []dto.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tasks response: %w", err)
	}
	return tasks, nil
}

// CompleteTask marks a task done.
func (h *SupabaseHandler) CompleteTask(id string) error {
	update := map[string]interface{}{"status": dto.TaskDone}
	_, _, err := h.client.From("tasks").Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

// ---- Hunt runs ----

// InsertHuntRun records an accepted hunt and returns its ID. The ID is
// generated here rather than by the database so callers can hand it to a
// background worker before the insert response round-trips.
func (h *SupabaseHandler) InsertHuntRun(run *dto.HuntRun) (string, error) {
	runID := uuid.NewString()
	log.Printf("[SupabaseHandler] InsertHuntRun %s: query=%q, city=%s", runID, run.Query, run.City)

	insertData := map[string]interface{}{
		"id":      runID,
		"user_id": run.UserID,
		"query":   run.Query,
		"city":    run.City,
		"status":  dto.RunPending,
	}

	_, _, err := h.client.From("hunt_runs").Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert hunt run: %v", err)
		return "", fmt.Errorf("failed to insert hunt run: %w", err)
	}
	return runID, nil
}

// UpdateHuntRunStatus updates the status and related fields of a hunt run
func (h *SupabaseHandler) UpdateHuntRunStatus(runID string, status string, leadsFound *int, errorMessage *string) error {
	log.Printf("[SupabaseHandler] UpdateHuntRunStatus: runID=%s, status=%s", runID, status)

	update := map[string]interface{}{
		"status": status,
	}

	now := time.Now().UTC()

	switch status {
	case dto.RunRunning:
		update["started_at"] = now.Format(time.RFC3339)
	case dto.RunCompleted:
		update["completed_at"] = now.Format(time.RFC3339)
		if leadsFound != nil {
			update["leads_found"] = *leadsFound
		}
	case dto.RunFailed:
		update["completed_at"] = now.Format(time.RFC3339)
		if errorMessage != nil {
			update["error"] = *errorMessage
		}
	}

	_, _, err := h.client.From("hunt_runs").Update(update, "", "").Eq("id", runID).Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to update hunt run status: %v", err)
		return fmt.Errorf("failed to update hunt run status: %w", err)
	}
	return nil
}

// GetHuntRun returns one hunt run by ID.
func (h *SupabaseHandler) GetHuntRun(id string) (*dto.HuntRun, error) {
	data, _, err := h.client.From("hunt_runs").Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query hunt run: %w", err)
	}

	var runs []dto.HuntRun
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to parse hunt run response: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("hunt run not found: %s", id)
	}
	return &runs[0], nil
}

// ListHuntRuns returns a user's hunt runs, newest first.
func (h *SupabaseHandler) ListHuntRuns(userID string, limit int) ([]dto.HuntRun, error) {
	query := h.client.From("hunt_runs").Select("*", "exact", false)
	if userID != "" {
		query = query.Eq("user_id", userID)
	}
	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list hunt runs: %w", err)
	}

	var runs []dto.HuntRun
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to parse hunt runs response: %w", err)
	}
	return runs, nil
}

// InsertHuntLog records the write-once summary of a finished run.
func (h *SupabaseHandler) InsertHuntLog(huntLog *dto.HuntLog) error {
	insertData := map[string]interface{}{
		"run_id":          huntLog.RunID,
		"query":           huntLog.Query,
		"city":            huntLog.City,
		"result_count":    huntLog.ResultCount,
		"domains_scanned": huntLog.DomainsScanned,
		"duration_ms":     huntLog.DurationMS,
		"mode":            huntLog.Mode,
	}

	_, _, err := h.client.From("hunt_logs").Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert hunt log: %v", err)
		return fmt.Errorf("failed to insert hunt log: %w", err)
	}
	return nil
}

// ---- Conversations ----

// InsertConversationTurn appends one turn to a lead's conversation trail.
func (h *SupabaseHandler) InsertConversationTurn(turn *dto.ConversationTurn) error {
	insertData := map[string]interface{}{
		"lead_id":  turn.LeadID,
		"message":  turn.Message,
		"response": turn.Response,
	}
	if turn.Intent != "" {
		insertData["intent"] = turn.Intent
	}
	if turn.Sentiment != "" {
		insertData["sentiment"] = turn.Sentiment
	}
	if turn.Readiness != "" {
		insertData["readiness"] = turn.Readiness
	}
	if turn.OpportunityScore > 0 {
		insertData["opportunity_score"] = turn.OpportunityScore
	}

	_, _, err := h.client.From("conversations").Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert conversation turn: %v", err)
		return fmt.Errorf("failed to insert conversation turn: %w", err)
	}
	return nil
}

// GetConversation returns up to limit most recent turns for a lead, in
// chronological order.
func (h *SupabaseHandler) GetConversation(leadID string, limit int) ([]dto.ConversationTurn, error) {
	query := h.client.From("conversations").Select("*", "exact", false).
		Eq("lead_id", leadID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var turns []dto.ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to parse conversation response: %w", err)
	}

	// Reverse newest-first into chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// PruneConversation deletes the oldest turns of a lead's conversation so at
// most max remain.
func (h *SupabaseHandler) PruneConversation(leadID string, max int) error {
	data, count, err := h.client.From("conversations").Select("id", "exact", false).
		Eq("lead_id", leadID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to count conversation turns: %w", err)
	}
	if int(count) <= max {
		return nil
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to parse conversation ids: %w", err)
	}

	excess := len(rows) - max
	if excess <= 0 {
		return nil
	}
	ids := make([]string, 0, excess)
	for _, row := range rows[:excess] {
		ids = append(ids, row.ID)
	}

	log.Printf("[SupabaseHandler] PruneConversation: lead=%s, deleting %d oldest turns", leadID, excess)
	_, _, err = h.client.From("conversations").Delete("", "").In("id", ids).Execute()
	if err != nil {
		return fmt.Errorf("failed to prune conversation: %w", err)
	}
	return nil
}

// ---- Users ----

// GetUserByUsername returns the user with the given username, or nil when no
// such user exists.
func (h *SupabaseHandler) GetUserByUsername(username string) (*dto.User, error) {
	data, _, err := h.client.From("users").Select("*", "exact", false).Eq("username", username).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	var users []dto.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// InsertUser creates a staff account and returns its ID.
func (h *SupabaseHandler) InsertUser(user *dto.User) (string, error) {
	log.Printf("[SupabaseHandler] InsertUser: username=%s, role=%s", user.Username, user.Role)

	insertData := map[string]interface{}{
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
	}
	if user.Email != "" {
		insertData["email"] = user.Email
	}

	data, _, err := h.client.From("users").Insert(insertData, false, "", "representation", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert user: %v", err)
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	var inserted []dto.User
	if err := json.Unmarshal(data, &inserted); err != nil {
		return "", fmt.Errorf("failed to parse user response: %w", err)
	}
	if len(inserted) == 0 {
		return "", fmt.Errorf("no user was inserted")
	}
	return inserted[0].ID, nil
}

// ---- Dashboard ----

// GetDashboardStats aggregates lead and task counters for the dashboard.
func (h *SupabaseHandler) GetDashboardStats() (*dto.DashboardStats, error) {
	data, _, err := h.client.From("leads").Select("status,source,quality,created_at", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query leads for stats: %w", err)
	}

	var rows []struct {
		Status    string    `json:"status"`
		Source    string    `json:"source"`
		Quality   string    `json:"quality"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse stats response: %w", err)
	}

	stats := &dto.DashboardStats{
		LeadsByStatus: map[string]int{},
		LeadsBySource: map[string]int{},
		UpdatedAt:     time.Now().UTC(),
	}
	weekAgo := time.Now().UTC().AddDate(0, 0, -7)

	for _, row := range rows {
		stats.TotalLeads++
		stats.LeadsByStatus[row.Status]++
		stats.LeadsBySource[row.Source]++
		if row.Quality == dto.QualityHot {
			stats.HotLeads++
		}
		if row.CreatedAt.After(weekAgo) {
			stats.NewThisWeek++
		}
	}

	_, pendingCount, err := h.client.From("tasks").Select("id", "exact", true).
		Eq("status", dto.TaskPending).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	stats.PendingTasks = int(pendingCount)

	log.Printf("[SupabaseHandler] GetDashboardStats: %d leads, %d pending tasks", stats.TotalLeads, stats.PendingTasks)
	return stats, nil
}

// ---- Usage metrics ----

// InsertUsageMetric records one LLM operation in the usage_metrics table.
func (h *SupabaseHandler) InsertUsageMetric(metric *dto.UsageMetricInput) error {
	insertData := map[string]interface{}{
		"operation_type":     metric.OperationType,
		"model":              metric.Model,
		"input_tokens":       metric.InputTokens,
		"output_tokens":      metric.OutputTokens,
		"total_tokens":       metric.TotalTokens,
		"estimated_cost_usd": metric.EstimatedCostUS,
		"duration_ms":        metric.DurationMs,
		"success":            metric.Success,
	}
	if metric.LeadID != nil {
		insertData["lead_id"] = *metric.LeadID
	}
	if metric.ErrorMessage != nil {
		insertData["error_message"] = *metric.ErrorMessage
	}

	_, _, err := h.client.From("usage_metrics").Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert usage metric: %v", err)
		return fmt.Errorf("failed to insert usage metric: %w", err)
	}
	return nil
}
