package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
)

// huntRunStore persists hunt runs for the trigger and listing endpoints.
type huntRunStore interface {
	InsertHuntRun(run *dto.HuntRun) (string, error)
	GetHuntRun(id string) (*dto.HuntRun, error)
	ListHuntRuns(userID string, limit int) ([]dto.HuntRun, error)
}

// huntRunner executes an accepted run in the background.
type huntRunner interface {
	ProcessHunt(ctx context.Context, run *dto.HuntRun, maxResults int)
}

// HuntController handles background lead hunt runs
type HuntController struct {
	store  huntRunStore
	runner huntRunner
}

// NewHuntController creates a new HuntController instance
func NewHuntController(store huntRunStore, runner huntRunner) *HuntController {
	return &HuntController{store: store, runner: runner}
}

// StartHunt godoc
// @Summary      Start a lead hunt
// @Description  Accepts a hunt over one city/intent pair and processes it in the background. Returns immediately with the run ID.
// @Tags         hunts
// @Accept       json
// @Produce      json
// @Param        request body dto.HuntRequest true "Hunt parameters"
// @Success      202 {object} dto.HuntRun "Accepted run"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      503 {object} dto.ErrorResponse "Search not configured"
// @Router       /hunts [post]
// @Security     BearerAuth
func (ctrl *HuntController) StartHunt(c *gin.Context) {
	var req dto.HuntRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if ctrl.runner == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "search is not configured"})
		return
	}

	run := &dto.HuntRun{
		UserID: c.GetString(CtxUserID),
		Query:  req.Query,
		City:   req.City,
		Status: dto.RunPending,
	}
	id, err := ctrl.store.InsertHuntRun(run)
	if err != nil {
		log.Printf("[HuntController] Failed to persist hunt run: %v", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create hunt run"})
		return
	}
	run.ID = id

	log.Printf("[HuntController] Hunt accepted: %s (query=%q city=%q)", id, req.Query, req.City)

	// Acknowledge first; the run continues after this request ends.
	go ctrl.runner.ProcessHunt(context.Background(), run, req.MaxResults)

	c.JSON(http.StatusAccepted, run)
}

// GetHunt godoc
// @Summary      Get a hunt run
// @Description  Returns the current state of one hunt run
// @Tags         hunts
// @Produce      json
// @Param        id path string true "Run ID"
// @Success      200 {object} dto.HuntRun "Run state"
// @Failure      404 {object} dto.ErrorResponse "Run not found"
// @Router       /hunts/{id} [get]
// @Security     BearerAuth
func (ctrl *HuntController) GetHunt(c *gin.Context) {
	run, err := ctrl.store.GetHuntRun(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListHunts godoc
// @Summary      List hunt runs
// @Description  Lists recent hunt runs, newest first
// @Tags         hunts
// @Produce      json
// @Param        mine query bool false "Only runs started by the caller"
// @Param        limit query int false "Maximum rows (default 50)"
// @Success      200 {array} dto.HuntRun "Recent runs"
// @Router       /hunts [get]
// @Security     BearerAuth
func (ctrl *HuntController) ListHunts(c *gin.Context) {
	userID := ""
	if c.Query("mine") == "true" {
		userID = c.GetString(CtxUserID)
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := ctrl.store.ListHuntRuns(userID, limit)
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []dto.HuntRun{}
	}
	c.JSON(http.StatusOK, runs)
}
