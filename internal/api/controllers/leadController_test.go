package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCRM is an in-memory crmService for controller tests
type fakeCRM struct {
	leads        map[string]*dto.Lead
	interactions map[string][]dto.Interaction
	tasks        []dto.Task
	stats        *dto.DashboardStats

	lastFilter  dto.LeadFilter
	sent        []string
	completed   []string
	err         error
	createdWith dto.LeadCreate
	createdBy   string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		leads:        map[string]*dto.Lead{},
		interactions: map[string][]dto.Interaction{},
	}
}

func (f *fakeCRM) CreateLead(_ context.Context, req dto.LeadCreate, createdBy string) (*dto.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.createdWith = req
	f.createdBy = createdBy
	lead := &dto.Lead{ID: "lead-1", Phone: req.Phone, Name: req.Name, Status: dto.StatusNew}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeCRM) SearchLeads(filter dto.LeadFilter) ([]dto.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilter = filter
	var out []dto.Lead
	for _, l := range f.leads {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeCRM) GetLead(id string) (*dto.Lead, []dto.Interaction, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, nil, errors.New("lead not found: " + id)
	}
	return lead, f.interactions[id], nil
}

func (f *fakeCRM) UpdateLead(id string, req dto.LeadUpdate) error {
	if f.err != nil {
		return f.err
	}
	lead, ok := f.leads[id]
	if !ok {
		return errors.New("lead not found: " + id)
	}
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	return nil
}

func (f *fakeCRM) DeleteLead(id string) error {
	if _, ok := f.leads[id]; !ok {
		return errors.New("lead not found: " + id)
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeCRM) SendMessage(_ context.Context, leadID, body string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.leads[leadID]; !ok {
		return errors.New("lead not found: " + leadID)
	}
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeCRM) Dashboard() (*dto.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeCRM) Tasks(status, leadID string) ([]dto.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks, nil
}

func (f *fakeCRM) CompleteTask(id string) error {
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, id)
	return nil
}

// leadTestRouter mounts the lead routes behind a stub identity
func leadTestRouter(crm *fakeCRM) *gin.Engine {
	ctrl := NewLeadController(crm)
	router := setupTestRouter()
	router.Use(func(c *gin.Context) {
		c.Set(CtxUserID, "u-42")
		c.Set(CtxRole, dto.RoleAgent)
	})
	router.POST("/leads", ctrl.CreateLead)
	router.GET("/leads", ctrl.ListLeads)
	router.GET("/leads/:id", ctrl.GetLead)
	router.PATCH("/leads/:id", ctrl.UpdateLead)
	router.DELETE("/leads/:id", ctrl.DeleteLead)
	router.POST("/leads/:id/message", ctrl.SendMessage)
	router.GET("/dashboard", ctrl.Dashboard)
	router.GET("/tasks", ctrl.ListTasks)
	router.POST("/tasks/:id/complete", ctrl.CompleteTask)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateLead_Success(t *testing.T) {
	crm := newFakeCRM()
	router := leadTestRouter(crm)

	w := postJSON(t, router, "/leads", dto.LeadCreate{Phone: "01012345678", Name: "Ahmed"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-42", crm.createdBy)
	assert.Equal(t, "Ahmed", crm.createdWith.Name)

	var lead dto.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lead))
	assert.Equal(t, "lead-1", lead.ID)
}

func TestCreateLead_MissingPhone(t *testing.T) {
	router := leadTestRouter(newFakeCRM())

	w := postJSON(t, router, "/leads", map[string]string{"name": "Ahmed"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLead_InvalidPhoneFromService(t *testing.T) {
	crm := newFakeCRM()
	crm.err = errors.New("invalid Egyptian mobile number: 12345")
	router := leadTestRouter(crm)

	w := postJSON(t, router, "/leads", dto.LeadCreate{Phone: "12345"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLeads_FilterParsing(t *testing.T) {
	crm := newFakeCRM()
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodGet, "/leads?status=new,contacted&source=hunt&q=ahmed&mine=true")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"new", "contacted"}, crm.lastFilter.Statuses)
	assert.Equal(t, []string{"hunt"}, crm.lastFilter.Sources)
	assert.Equal(t, "ahmed", crm.lastFilter.Search)
	assert.Equal(t, "u-42", crm.lastFilter.CreatedBy)
}

func TestListLeads_PaginationParams(t *testing.T) {
	crm := newFakeCRM()
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodGet, "/leads?limit=25&offset=50")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, crm.lastFilter.Limit)
	assert.Equal(t, 50, crm.lastFilter.Offset)
}

func TestListLeads_PaginationOmittedIsZero(t *testing.T) {
	crm := newFakeCRM()
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodGet, "/leads?limit=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, crm.lastFilter.Limit)
	assert.Equal(t, 0, crm.lastFilter.Offset)
}

func TestListLeads_EmptyIsArray(t *testing.T) {
	router := leadTestRouter(newFakeCRM())

	w := doRequest(t, router, http.MethodGet, "/leads")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestGetLead_WithInteractions(t *testing.T) {
	crm := newFakeCRM()
	crm.leads["lead-1"] = &dto.Lead{ID: "lead-1", Phone: "01012345678"}
	crm.interactions["lead-1"] = []dto.Interaction{{LeadID: "lead-1", Type: dto.InteractionWhatsApp}}
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodGet, "/leads/lead-1")

	assert.Equal(t, http.StatusOK, w.Code)

	var detail leadDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "lead-1", detail.Lead.ID)
	require.Len(t, detail.Interactions, 1)
}

func TestGetLead_NotFound(t *testing.T) {
	router := leadTestRouter(newFakeCRM())

	w := doRequest(t, router, http.MethodGet, "/leads/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateLead_ReturnsUpdatedLead(t *testing.T) {
	crm := newFakeCRM()
	crm.leads["lead-1"] = &dto.Lead{ID: "lead-1", Phone: "01012345678", Status: dto.StatusNew}
	router := leadTestRouter(crm)

	status := dto.StatusQualified
	w := postPatch(t, router, "/leads/lead-1", dto.LeadUpdate{Status: &status})

	assert.Equal(t, http.StatusOK, w.Code)

	var lead dto.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lead))
	assert.Equal(t, dto.StatusQualified, lead.Status)
}

func postPatch(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPatch, path, bytes.NewBuffer(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDeleteLead(t *testing.T) {
	crm := newFakeCRM()
	crm.leads["lead-1"] = &dto.Lead{ID: "lead-1"}
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodDelete, "/leads/lead-1")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, crm.leads)
}

func TestSendMessage_Success(t *testing.T) {
	crm := newFakeCRM()
	crm.leads["lead-1"] = &dto.Lead{ID: "lead-1"}
	router := leadTestRouter(crm)

	w := postJSON(t, router, "/leads/lead-1/message", dto.SendMessageRequest{Message: "مرحبا"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"مرحبا"}, crm.sent)
}

func TestSendMessage_NotConfigured(t *testing.T) {
	crm := newFakeCRM()
	crm.err = errors.New("messaging is not configured")
	router := leadTestRouter(crm)

	w := postJSON(t, router, "/leads/lead-1/message", dto.SendMessageRequest{Message: "hi"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDashboard(t *testing.T) {
	crm := newFakeCRM()
	crm.stats = &dto.DashboardStats{
		TotalLeads:    12,
		HotLeads:      3,
		LeadsByStatus: map[string]int{dto.StatusNew: 5},
		UpdatedAt:     time.Now(),
	}
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodGet, "/dashboard")

	assert.Equal(t, http.StatusOK, w.Code)

	var stats dto.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 12, stats.TotalLeads)
	assert.Equal(t, 3, stats.HotLeads)
}

func TestCompleteTask(t *testing.T) {
	crm := newFakeCRM()
	router := leadTestRouter(crm)

	w := doRequest(t, router, http.MethodPost, "/tasks/task-9/complete")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"task-9"}, crm.completed)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", errors.New("lead not found: x"), http.StatusNotFound},
		{"invalid input", errors.New("invalid Egyptian mobile number: 5"), http.StatusBadRequest},
		{"duplicate", errors.New("lead with phone 01012345678 already exists"), http.StatusBadRequest},
		{"empty update", errors.New("no fields to update"), http.StatusBadRequest},
		{"unconfigured", errors.New("messaging is not configured"), http.StatusServiceUnavailable},
		{"opaque", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestSplitParam(t *testing.T) {
	assert.Nil(t, splitParam(""))
	assert.Equal(t, []string{"a"}, splitParam("a"))
	assert.Equal(t, []string{"a", "b"}, splitParam("a, b"))
	assert.Equal(t, []string{"a"}, splitParam("a,,"))
}
