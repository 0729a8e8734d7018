package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
)

// crmService is the slice of the CRM layer the lead endpoints need.
type crmService interface {
	CreateLead(ctx context.Context, req dto.LeadCreate, createdBy string) (*dto.Lead, error)
	SearchLeads(filter dto.LeadFilter) ([]dto.Lead, error)
	GetLead(id string) (*dto.Lead, []dto.Interaction, error)
	UpdateLead(id string, req dto.LeadUpdate) error
	DeleteLead(id string) error
	SendMessage(ctx context.Context, leadID, body string) error
	Dashboard() (*dto.DashboardStats, error)
	Tasks(status, leadID string) ([]dto.Task, error)
	CompleteTask(id string) error
}

// LeadController handles lead CRUD, messaging, tasks and the dashboard
type LeadController struct {
	crm crmService
}

// NewLeadController creates a new LeadController instance
func NewLeadController(crm crmService) *LeadController {
	return &LeadController{crm: crm}
}

// leadDetail pairs a lead with its recent interactions
type leadDetail struct {
	Lead         dto.Lead          `json:"lead"`
	Interactions []dto.Interaction `json:"interactions"`
}

// statusForError maps service errors onto HTTP statuses by their shape.
// Validation failures and missing records come back as plain messages,
// everything else is an internal failure.
func statusForError(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "invalid"),
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "no fields"):
		return http.StatusBadRequest
	case strings.Contains(msg, "not configured"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CreateLead godoc
// @Summary      Create a lead
// @Description  Creates a lead with a validated Egyptian mobile number and schedules the initial follow-up task
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body dto.LeadCreate true "Lead details"
// @Success      201 {object} dto.Lead "Created lead"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Router       /leads [post]
// @Security     BearerAuth
func (ctrl *LeadController) CreateLead(c *gin.Context) {
	var req dto.LeadCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	lead, err := ctrl.crm.CreateLead(c.Request.Context(), req, c.GetString(CtxUserID))
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// ListLeads godoc
// @Summary      List leads
// @Description  Lists leads filtered by status, source, creator and a free-text search over name, email and phone
// @Tags         leads
// @Produce      json
// @Param        status query string false "Comma-separated lead statuses"
// @Param        source query string false "Comma-separated source channels"
// @Param        q query string false "Substring match over name, email and phone"
// @Param        mine query bool false "Only leads created by the caller"
// @Param        limit query int false "Page size (max 200, default 50)"
// @Param        offset query int false "Rows to skip, newest first"
// @Success      200 {array} dto.Lead "Matching leads, newest first"
// @Failure      400 {object} dto.ErrorResponse "Bad request - invalid status"
// @Router       /leads [get]
// @Security     BearerAuth
func (ctrl *LeadController) ListLeads(c *gin.Context) {
	filter := dto.LeadFilter{
		Statuses: splitParam(c.Query("status")),
		Sources:  splitParam(c.Query("source")),
		Search:   c.Query("q"),
		Limit:    intParam(c.Query("limit")),
		Offset:   intParam(c.Query("offset")),
	}
	if c.Query("mine") == "true" {
		filter.CreatedBy = c.GetString(CtxUserID)
	}

	leads, err := ctrl.crm.SearchLeads(filter)
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	if leads == nil {
		leads = []dto.Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

// GetLead godoc
// @Summary      Get a lead
// @Description  Returns one lead with its recent interaction history
// @Tags         leads
// @Produce      json
// @Param        id path string true "Lead ID"
// @Success      200 {object} leadDetail "Lead with interactions"
// @Failure      404 {object} dto.ErrorResponse "Lead not found"
// @Router       /leads/{id} [get]
// @Security     BearerAuth
func (ctrl *LeadController) GetLead(c *gin.Context) {
	lead, interactions, err := ctrl.crm.GetLead(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	if interactions == nil {
		interactions = []dto.Interaction{}
	}
	c.JSON(http.StatusOK, leadDetail{Lead: *lead, Interactions: interactions})
}

// UpdateLead godoc
// @Summary      Update a lead
// @Description  Applies a partial update; phone is re-normalized and score re-bucketed
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path string true "Lead ID"
// @Param        request body dto.LeadUpdate true "Fields to change"
// @Success      200 {object} dto.Lead "Updated lead"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      404 {object} dto.ErrorResponse "Lead not found"
// @Router       /leads/{id} [patch]
// @Security     BearerAuth
func (ctrl *LeadController) UpdateLead(c *gin.Context) {
	var req dto.LeadUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	id := c.Param("id")
	if err := ctrl.crm.UpdateLead(id, req); err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	lead, _, err := ctrl.crm.GetLead(id)
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// DeleteLead godoc
// @Summary      Delete a lead
// @Tags         leads
// @Produce      json
// @Param        id path string true "Lead ID"
// @Success      204 "Deleted"
// @Failure      404 {object} dto.ErrorResponse "Lead not found"
// @Router       /leads/{id} [delete]
// @Security     BearerAuth
func (ctrl *LeadController) DeleteLead(c *gin.Context) {
	if err := ctrl.crm.DeleteLead(c.Param("id")); err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// SendMessage godoc
// @Summary      Message a lead
// @Description  Sends a WhatsApp text to the lead and records the outbound interaction
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path string true "Lead ID"
// @Param        request body dto.SendMessageRequest true "Message body"
// @Success      200 {object} map[string]string "Delivery acknowledged"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      404 {object} dto.ErrorResponse "Lead not found"
// @Failure      503 {object} dto.ErrorResponse "Messaging not configured"
// @Router       /leads/{id}/message [post]
// @Security     BearerAuth
func (ctrl *LeadController) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ctrl.crm.SendMessage(c.Request.Context(), c.Param("id"), req.Message); err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// Dashboard godoc
// @Summary      CRM dashboard stats
// @Description  Aggregated lead counts by status and source, hot leads, weekly intake and pending tasks
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.DashboardStats "Current stats"
// @Router       /dashboard [get]
// @Security     BearerAuth
func (ctrl *LeadController) Dashboard(c *gin.Context) {
	stats, err := ctrl.crm.Dashboard()
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTasks godoc
// @Summary      List tasks
// @Description  Lists follow-up tasks, optionally filtered by status and lead, ordered by due date
// @Tags         tasks
// @Produce      json
// @Param        status query string false "Task status (pending or done)"
// @Param        lead_id query string false "Restrict to one lead"
// @Success      200 {array} dto.Task "Tasks by due date"
// @Router       /tasks [get]
// @Security     BearerAuth
func (ctrl *LeadController) ListTasks(c *gin.Context) {
	tasks, err := ctrl.crm.Tasks(c.Query("status"), c.Query("lead_id"))
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	if tasks == nil {
		tasks = []dto.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// CompleteTask godoc
// @Summary      Complete a task
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} map[string]string "Marked done"
// @Failure      404 {object} dto.ErrorResponse "Task not found"
// @Router       /tasks/{id}/complete [post]
// @Security     BearerAuth
func (ctrl *LeadController) CompleteTask(c *gin.Context) {
	if err := ctrl.crm.CompleteTask(c.Param("id")); err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "done"})
}

// intParam parses a numeric query value; malformed or negative input
// falls back to zero, which downstream treats as the default.
func intParam(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// splitParam splits a comma-separated query value, dropping empties.
func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
