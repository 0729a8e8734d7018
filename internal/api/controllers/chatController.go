package controllers

import (
	"context"
	"net/http"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
)

// chatAgent answers free-form marketing questions from staff and drafts
// ad copy from product briefs.
type chatAgent interface {
	Chat(ctx context.Context, message string) *dto.ChatResponse
	GenerateAdCopy(ctx context.Context, req dto.AdCopyRequest) *dto.AdCopyResponse
}

// commandMapper maps natural-language admin commands to action descriptors.
type commandMapper interface {
	MapCommand(ctx context.Context, command string) *dto.AdminAction
}

// ChatController handles the marketing assistant and admin command adapter
type ChatController struct {
	agent  chatAgent
	mapper commandMapper
}

// NewChatController creates a new ChatController instance
func NewChatController(agent chatAgent, mapper commandMapper) *ChatController {
	return &ChatController{agent: agent, mapper: mapper}
}

// Chat godoc
// @Summary      Marketing assistant chat
// @Description  Free-form chat with the property marketing assistant
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body dto.ChatRequest true "Staff message"
// @Success      200 {object} dto.ChatResponse "Assistant reply"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      503 {object} dto.ErrorResponse "Assistant not configured"
// @Router       /chat [post]
// @Security     BearerAuth
func (ctrl *ChatController) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if ctrl.agent == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "marketing assistant is not configured"})
		return
	}

	c.JSON(http.StatusOK, ctrl.agent.Chat(c.Request.Context(), req.Message))
}

// GenerateAdCopy godoc
// @Summary      Generate ad copy
// @Description  Drafts three ad copy variations (AIDA, PAS, benefit-led) from a product brief
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body dto.AdCopyRequest true "Product brief"
// @Success      200 {object} dto.AdCopyResponse "Generated copy"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      503 {object} dto.ErrorResponse "Assistant not configured"
// @Router       /ads/generate [post]
// @Security     BearerAuth
func (ctrl *ChatController) GenerateAdCopy(c *gin.Context) {
	var req dto.AdCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if ctrl.agent == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "marketing assistant is not configured"})
		return
	}

	c.JSON(http.StatusOK, ctrl.agent.GenerateAdCopy(c.Request.Context(), req))
}

// MapCommand godoc
// @Summary      Map an admin command
// @Description  Maps a natural-language admin command to an action descriptor. Unrecognized commands map to the unknown action.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body dto.AdminCommandRequest true "Command text"
// @Success      200 {object} dto.AdminAction "Action descriptor"
// @Failure      400 {object} dto.ErrorResponse "Bad request - validation error"
// @Failure      503 {object} dto.ErrorResponse "Adapter not configured"
// @Router       /admin/commands [post]
// @Security     BearerAuth
func (ctrl *ChatController) MapCommand(c *gin.Context) {
	var req dto.AdminCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if ctrl.mapper == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "command adapter is not configured"})
		return
	}

	c.JSON(http.StatusOK, ctrl.mapper.MapCommand(c.Request.Context(), req.Command))
}
