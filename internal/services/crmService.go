package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"brilliox/leadhunter-backend/internal/dto"
	"brilliox/leadhunter-backend/internal/handlers"
)

const (
	// ConversationMemoryLimit caps how many turns are kept per lead.
	ConversationMemoryLimit = 100
	// historyWindow is how many past turns feed the agent prompt.
	historyWindow = 10

	followUpDue = 24 * time.Hour
	urgentDue   = 15 * time.Minute
)

// highQualitySources are channels whose leads start with the bigger source
// bonus.
var highQualitySources = map[string]bool{
	dto.SourceReferral:   true,
	dto.SourceWhatsApp:   true,
	dto.SourceFacebookAd: true,
}

// leadStore is the slice of the Supabase handler the CRM needs.
type leadStore interface {
	InsertLead(lead *dto.Lead) (string, error)
	GetLeadByPhone(phone string) (*dto.Lead, error)
	GetLead(id string) (*dto.Lead, error)
	UpdateLead(id string, update map[string]interface{}) error
	ListLeads(filter dto.LeadFilter) ([]dto.Lead, error)
	DeleteLead(id string) error
	InsertInteraction(interaction *dto.Interaction) error
	ListInteractions(leadID string, limit int) ([]dto.Interaction, error)
	InsertTask(task *dto.Task) (string, error)
	ListTasks(status, leadID string) ([]dto.Task, error)
	CompleteTask(id string) error
	InsertConversationTurn(turn *dto.ConversationTurn) error
	GetConversation(leadID string, limit int) ([]dto.ConversationTurn, error)
	PruneConversation(leadID string, max int) error
	GetDashboardStats() (*dto.DashboardStats, error)
}

// Messenger sends outbound WhatsApp messages.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// SalesAgent generates the structured reply to an inbound lead message.
type SalesAgent interface {
	Reply(ctx context.Context, lead *dto.Lead, history []dto.ConversationTurn, message string) *dto.AgentReply
}

// CRMService owns lead lifecycle logic: scoring, tasks, interactions and the
// inbound-message loop. Messenger and agent may be nil when the respective
// integration is not configured; the service degrades instead of failing.
type CRMService struct {
	store     leadStore
	messenger Messenger
	agent     SalesAgent

	// now is injected for tests
	now func() time.Time
}

// NewCRMService creates a new CRMService instance
func NewCRMService(store leadStore, m Messenger, agent SalesAgent) *CRMService {
	return &CRMService{
		store:     store,
		messenger: m,
		agent:     agent,
		now:       time.Now,
	}
}

// initialScore computes a new lead's score from completeness and source:
// name+phone together are worth 1.0, email 0.5, company 0.3, and the source
// adds 2.0 for high-quality channels or 1.0 otherwise. Clamped to [0,5].
func initialScore(name, email, company, source string) float64 {
	score := 0.0
	if name != "" {
		score += 1.0
	}
	if email != "" {
		score += 0.5
	}
	if company != "" {
		score += 0.3
	}
	if highQualitySources[source] {
		score += 2.0
	} else {
		score += 1.0
	}
	return dto.ClampScore(score)
}

// waRecipient converts a national 11-digit phone to the international form
// WhatsApp expects (20XXXXXXXXXX).
func waRecipient(phone string) string {
	if len(phone) == 11 && phone[0] == '0' {
		return "2" + phone
	}
	return phone
}

// welcomeMessage is the WhatsApp text sent to newly created leads.
func welcomeMessage(name string) string {
	if name != "" {
		return fmt.Sprintf("أهلا %s! شكرا لاهتمامك. أحد مستشارينا العقاريين هيتواصل معاك قريبا، وتقدر تبعتلنا أي سؤال هنا في أي وقت.", name)
	}
	return "أهلا بيك! شكرا لاهتمامك. أحد مستشارينا العقاريين هيتواصل معاك قريبا، وتقدر تبعتلنا أي سؤال هنا في أي وقت."
}

// CreateLead validates and creates a lead, schedules its follow-up task and
// optionally sends the WhatsApp welcome. The phone is normalized before
// storage; a second lead with the same phone is rejected.
func (s *CRMService) CreateLead(ctx context.Context, req dto.LeadCreate, createdBy string) (*dto.Lead, error) {
	phone, ok := handlers.NormalizePhone(req.Phone)
	if !ok {
		return nil, fmt.Errorf("invalid Egyptian mobile number: %s", req.Phone)
	}

	existing, err := s.store.GetLeadByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing lead: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("lead with phone %s already exists", phone)
	}

	source := req.Source
	if source == "" {
		source = dto.SourceManual
	}

	score := initialScore(req.Name, req.Email, req.Company, source)
	lead := &dto.Lead{
		Phone:     phone,
		Name:      req.Name,
		Email:     req.Email,
		Company:   req.Company,
		Status:    dto.StatusNew,
		Source:    source,
		Score:     score,
		Quality:   dto.QualityForScore(score),
		Notes:     req.Notes,
		CreatedBy: createdBy,
	}

	id, err := s.store.InsertLead(lead)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	lead.ID = id

	due := s.now().Add(followUpDue)
	task := &dto.Task{
		Title:    fmt.Sprintf("Follow up with new lead %s", displayName(lead)),
		Type:     "follow_up",
		Priority: dto.PriorityMedium,
		Status:   dto.TaskPending,
		LeadID:   id,
		DueDate:  &due,
	}
	if _, err := s.store.InsertTask(task); err != nil {
		log.Printf("[CRMService] Failed to create follow-up task for lead %s: %v", id, err)
	}

	if req.SendWelcome && s.messenger != nil {
		if _, err := s.messenger.SendText(ctx, waRecipient(phone), welcomeMessage(req.Name)); err != nil {
			log.Printf("[CRMService] Failed to send welcome message to %s: %v", phone, err)
		} else {
			s.recordInteraction(id, dto.InteractionWhatsApp, dto.DirectionOutbound, "Welcome message sent")
		}
	}

	log.Printf("[CRMService] Lead created: id=%s, phone=%s, score=%.1f (%s)", id, phone, score, lead.Quality)
	return lead, nil
}

// HandleIncomingMessage runs the inbound-message loop for one lead message:
// find (or create) the lead, ask the agent for a structured reply, apply the
// clamped score delta, record both interaction directions and the
// conversation turn, send the reply, and raise an urgent task when the agent
// asks for a human.
func (s *CRMService) HandleIncomingMessage(ctx context.Context, rawPhone, message string) (*dto.AgentReply, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("conversational agent is not configured")
	}

	phone, ok := handlers.NormalizePhone(rawPhone)
	if !ok {
		return nil, fmt.Errorf("invalid sender phone: %s", rawPhone)
	}

	lead, err := s.store.GetLeadByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up lead: %w", err)
	}
	if lead == nil {
		// First contact from an unknown number becomes a lead
		score := initialScore("", "", "", dto.SourceWhatsApp)
		lead = &dto.Lead{
			Phone:   phone,
			Status:  dto.StatusNew,
			Source:  dto.SourceWhatsApp,
			Score:   score,
			Quality: dto.QualityForScore(score),
		}
		id, err := s.store.InsertLead(lead)
		if err != nil {
			return nil, fmt.Errorf("failed to create lead for %s: %w", phone, err)
		}
		lead.ID = id
		log.Printf("[CRMService] New lead from inbound message: id=%s, phone=%s", id, phone)
	}

	history, err := s.store.GetConversation(lead.ID, historyWindow)
	if err != nil {
		log.Printf("[CRMService] Failed to load conversation for lead %s: %v", lead.ID, err)
		history = nil
	}

	reply := s.agent.Reply(ctx, lead, history, message)

	newScore := dto.ClampScore(lead.Score + reply.ScoreChange)
	now := s.now().UTC()
	update := map[string]interface{}{
		"score":           newScore,
		"quality":         dto.QualityForScore(newScore),
		"last_contact_at": now.Format(time.RFC3339),
	}
	if lead.Status == dto.StatusNew {
		update["status"] = dto.StatusContacted
	}
	if err := s.store.UpdateLead(lead.ID, update); err != nil {
		log.Printf("[CRMService] Failed to update lead %s after message: %v", lead.ID, err)
	}

	s.recordInteraction(lead.ID, dto.InteractionWhatsApp, dto.DirectionInbound, message)
	s.recordInteraction(lead.ID, dto.InteractionWhatsApp, dto.DirectionOutbound, reply.Response)

	turn := &dto.ConversationTurn{
		LeadID:           lead.ID,
		Message:          message,
		Response:         reply.Response,
		Intent:           reply.Intent,
		Sentiment:        reply.Sentiment,
		Readiness:        reply.Readiness,
		OpportunityScore: reply.OpportunityScore,
	}
	if err := s.store.InsertConversationTurn(turn); err != nil {
		log.Printf("[CRMService] Failed to record conversation turn for lead %s: %v", lead.ID, err)
	}
	if err := s.store.PruneConversation(lead.ID, ConversationMemoryLimit); err != nil {
		log.Printf("[CRMService] Failed to prune conversation for lead %s: %v", lead.ID, err)
	}

	if s.messenger != nil {
		if _, err := s.messenger.SendText(ctx, waRecipient(phone), reply.Response); err != nil {
			log.Printf("[CRMService] Failed to send reply to %s: %v", phone, err)
		}
	}

	if reply.ShouldAlertTeam {
		due := s.now().Add(urgentDue)
		task := &dto.Task{
			Title:    fmt.Sprintf("URGENT: contact lead %s now", displayName(lead)),
			Type:     "alert",
			Priority: dto.PriorityUrgent,
			Status:   dto.TaskPending,
			LeadID:   lead.ID,
			DueDate:  &due,
		}
		if _, err := s.store.InsertTask(task); err != nil {
			log.Printf("[CRMService] Failed to create urgent task for lead %s: %v", lead.ID, err)
		}
	}

	log.Printf("[CRMService] Handled message for lead %s: intent=%s, readiness=%s, score %.1f -> %.1f, alert=%v",
		lead.ID, reply.Intent, reply.Readiness, lead.Score, newScore, reply.ShouldAlertTeam)
	return reply, nil
}

// SearchLeads returns leads matching the filter.
func (s *CRMService) SearchLeads(filter dto.LeadFilter) ([]dto.Lead, error) {
	for _, status := range filter.Statuses {
		if !dto.ValidStatus(status) {
			return nil, fmt.Errorf("invalid lead status: %s", status)
		}
	}
	return s.store.ListLeads(filter)
}

// GetLead returns one lead with its recent interactions.
func (s *CRMService) GetLead(id string) (*dto.Lead, []dto.Interaction, error) {
	lead, err := s.store.GetLead(id)
	if err != nil {
		return nil, nil, err
	}
	interactions, err := s.store.ListInteractions(id, 50)
	if err != nil {
		log.Printf("[CRMService] Failed to load interactions for lead %s: %v", id, err)
		interactions = nil
	}
	return lead, interactions, nil
}

// UpdateLead applies a partial update, validating status and clamping score.
func (s *CRMService) UpdateLead(id string, req dto.LeadUpdate) error {
	update := map[string]interface{}{}

	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Email != nil {
		update["email"] = *req.Email
	}
	if req.Phone != nil {
		phone, ok := handlers.NormalizePhone(*req.Phone)
		if !ok {
			return fmt.Errorf("invalid Egyptian mobile number: %s", *req.Phone)
		}
		update["phone"] = phone
	}
	if req.Status != nil {
		if !dto.ValidStatus(*req.Status) {
			return fmt.Errorf("invalid lead status: %s", *req.Status)
		}
		update["status"] = *req.Status
	}
	if req.Score != nil {
		score := dto.ClampScore(*req.Score)
		update["score"] = score
		update["quality"] = dto.QualityForScore(score)
	}
	if req.Notes != nil {
		update["notes"] = *req.Notes
	}

	if len(update) == 0 {
		return fmt.Errorf("no fields to update")
	}
	return s.store.UpdateLead(id, update)
}

// DeleteLead removes a lead.
func (s *CRMService) DeleteLead(id string) error {
	return s.store.DeleteLead(id)
}

// SendMessage sends a manual outbound WhatsApp message to a lead and records
// the interaction.
func (s *CRMService) SendMessage(ctx context.Context, leadID, body string) error {
	if s.messenger == nil {
		return fmt.Errorf("messaging is not configured")
	}

	lead, err := s.store.GetLead(leadID)
	if err != nil {
		return err
	}

	if _, err := s.messenger.SendText(ctx, waRecipient(lead.Phone), body); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.recordInteraction(leadID, dto.InteractionWhatsApp, dto.DirectionOutbound, body)
	now := s.now().UTC()
	if err := s.store.UpdateLead(leadID, map[string]interface{}{
		"last_contact_at": now.Format(time.RFC3339),
	}); err != nil {
		log.Printf("[CRMService] Failed to stamp last contact for lead %s: %v", leadID, err)
	}
	return nil
}

// Dashboard returns the aggregated CRM counters.
func (s *CRMService) Dashboard() (*dto.DashboardStats, error) {
	return s.store.GetDashboardStats()
}

// Tasks returns tasks filtered by status and/or lead.
func (s *CRMService) Tasks(status, leadID string) ([]dto.Task, error) {
	return s.store.ListTasks(status, leadID)
}

// CompleteTask marks a task done.
func (s *CRMService) CompleteTask(id string) error {
	return s.store.CompleteTask(id)
}

func (s *CRMService) recordInteraction(leadID, kind, direction, description string) {
	interaction := &dto.Interaction{
		LeadID:      leadID,
		Type:        kind,
		Direction:   direction,
		Description: description,
	}
	if err := s.store.InsertInteraction(interaction); err != nil {
		log.Printf("[CRMService] Failed to record %s interaction for lead %s: %v", direction, leadID, err)
	}
}

func displayName(lead *dto.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return lead.Phone
}
