package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatAgent struct {
	lastMessage string
	response    *dto.ChatResponse
	lastBrief   dto.AdCopyRequest
	adCopy      *dto.AdCopyResponse
}

func (f *fakeChatAgent) Chat(_ context.Context, message string) *dto.ChatResponse {
	f.lastMessage = message
	return f.response
}

func (f *fakeChatAgent) GenerateAdCopy(_ context.Context, req dto.AdCopyRequest) *dto.AdCopyResponse {
	f.lastBrief = req
	return f.adCopy
}

type fakeCommandMapper struct {
	lastCommand string
	action      *dto.AdminAction
}

func (f *fakeCommandMapper) MapCommand(_ context.Context, command string) *dto.AdminAction {
	f.lastCommand = command
	return f.action
}

func TestChat_Success(t *testing.T) {
	agent := &fakeChatAgent{response: &dto.ChatResponse{Response: "جرب إعلانات فيسبوك الممولة"}}
	ctrl := NewChatController(agent, nil)

	router := setupTestRouter()
	router.POST("/chat", ctrl.Chat)

	w := postJSON(t, router, "/chat", dto.ChatRequest{Message: "إزاي أسوق شقة في اكتوبر؟"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "إزاي أسوق شقة في اكتوبر؟", agent.lastMessage)

	var resp dto.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "جرب إعلانات فيسبوك الممولة", resp.Response)
	assert.False(t, resp.Fallback)
}

func TestChat_NotConfigured(t *testing.T) {
	ctrl := NewChatController(nil, nil)

	router := setupTestRouter()
	router.POST("/chat", ctrl.Chat)

	w := postJSON(t, router, "/chat", dto.ChatRequest{Message: "hello"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestChat_ValidationError(t *testing.T) {
	ctrl := NewChatController(&fakeChatAgent{}, nil)

	router := setupTestRouter()
	router.POST("/chat", ctrl.Chat)

	w := postJSON(t, router, "/chat", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateAdCopy_Success(t *testing.T) {
	agent := &fakeChatAgent{adCopy: &dto.AdCopyResponse{Copy: "شقتك في التجمع بمقدم 10%"}}
	ctrl := NewChatController(agent, nil)

	router := setupTestRouter()
	router.POST("/ads/generate", ctrl.GenerateAdCopy)

	w := postJSON(t, router, "/ads/generate", dto.AdCopyRequest{
		ProductName:    "شقة في التجمع الخامس",
		TargetAudience: "شباب مقبلين على الزواج",
		Platform:       "facebook",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "شقة في التجمع الخامس", agent.lastBrief.ProductName)
	assert.Equal(t, "facebook", agent.lastBrief.Platform)

	var resp dto.AdCopyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "شقتك في التجمع بمقدم 10%", resp.Copy)
}

func TestGenerateAdCopy_RequiresProductName(t *testing.T) {
	ctrl := NewChatController(&fakeChatAgent{}, nil)

	router := setupTestRouter()
	router.POST("/ads/generate", ctrl.GenerateAdCopy)

	w := postJSON(t, router, "/ads/generate", map[string]string{"description": "no name"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateAdCopy_NotConfigured(t *testing.T) {
	ctrl := NewChatController(nil, nil)

	router := setupTestRouter()
	router.POST("/ads/generate", ctrl.GenerateAdCopy)

	w := postJSON(t, router, "/ads/generate", dto.AdCopyRequest{ProductName: "villa"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMapCommand_Success(t *testing.T) {
	mapper := &fakeCommandMapper{action: &dto.AdminAction{
		Action:     dto.ActionGetStats,
		Confidence: 90,
	}}
	ctrl := NewChatController(nil, mapper)

	router := setupTestRouter()
	router.POST("/admin/commands", ctrl.MapCommand)

	w := postJSON(t, router, "/admin/commands", dto.AdminCommandRequest{Command: "عايز احصائيات الاسبوع"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "عايز احصائيات الاسبوع", mapper.lastCommand)

	var action dto.AdminAction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &action))
	assert.Equal(t, dto.ActionGetStats, action.Action)
	assert.Equal(t, 90, action.Confidence)
}

func TestMapCommand_NotConfigured(t *testing.T) {
	ctrl := NewChatController(nil, nil)

	router := setupTestRouter()
	router.POST("/admin/commands", ctrl.MapCommand)

	w := postJSON(t, router, "/admin/commands", dto.AdminCommandRequest{Command: "stats"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
