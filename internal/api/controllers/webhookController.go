package controllers

import (
	"context"
	"log"
	"net/http"

	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
)

// webhookVerifier answers the Meta webhook subscription handshake.
type webhookVerifier interface {
	VerifyWebhook(mode, token, challenge string) (string, bool)
}

// inboundProcessor runs the agent flow for one inbound lead message.
type inboundProcessor interface {
	HandleIncomingMessage(ctx context.Context, rawPhone, message string) (*dto.AgentReply, error)
}

// WebhookController handles WhatsApp Cloud API webhook requests
type WebhookController struct {
	verifier  webhookVerifier
	processor inboundProcessor
}

// NewWebhookController creates a new WebhookController instance
func NewWebhookController(verifier webhookVerifier, processor inboundProcessor) *WebhookController {
	return &WebhookController{
		verifier:  verifier,
		processor: processor,
	}
}

// VerifyWhatsApp handles GET /webhooks/whatsapp
// Meta calls this once when the webhook subscription is configured.
// @Summary Verify WhatsApp webhook subscription
// @Description Echoes hub.challenge when the verify token matches
// @Tags Webhooks
// @Produce plain
// @Param hub.mode query string true "Subscription mode"
// @Param hub.verify_token query string true "Configured verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string "Challenge echoed"
// @Failure 403 {object} dto.ErrorResponse "Verification failed"
// @Router /webhooks/whatsapp [get]
func (c *WebhookController) VerifyWhatsApp(ctx *gin.Context) {
	if c.verifier == nil {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "webhook verification is not configured"})
		return
	}

	challenge, ok := c.verifier.VerifyWebhook(
		ctx.Query("hub.mode"),
		ctx.Query("hub.verify_token"),
		ctx.Query("hub.challenge"),
	)
	if !ok {
		log.Printf("[WebhookController] Webhook verification rejected")
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "verification failed"})
		return
	}

	ctx.String(http.StatusOK, challenge)
}

// HandleWhatsApp handles POST /webhooks/whatsapp
// Meta calls this for every inbound message on the business number.
// @Summary Handle inbound WhatsApp messages
// @Description Receives the Meta Graph webhook envelope, acknowledges immediately and processes each text message in the background
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param payload body dto.WhatsAppWebhook true "Webhook envelope from Meta"
// @Success 200 {object} map[string]string "Webhook accepted"
// @Failure 400 {object} dto.ErrorResponse "Bad request"
// @Router /webhooks/whatsapp [post]
func (c *WebhookController) HandleWhatsApp(ctx *gin.Context) {
	var payload dto.WhatsAppWebhook
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		log.Printf("[WebhookController] Failed to parse webhook payload: %v", err)
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid webhook payload",
		})
		return
	}

	messages := payload.InboundText()
	log.Printf("[WebhookController] Webhook received: object=%s, messages=%d",
		payload.Object, len(messages))

	// Respond 200 immediately; Meta retries on slow acknowledgements.
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "accepted",
		"messages": len(messages),
	})

	if c.processor == nil {
		if len(messages) > 0 {
			log.Printf("[WebhookController] Dropping %d messages: agent flow is not configured", len(messages))
		}
		return
	}

	// Process each message in background
	for _, m := range messages {
		go func(from, body string) {
			if _, err := c.processor.HandleIncomingMessage(context.Background(), from, body); err != nil {
				log.Printf("[WebhookController] Failed to process message from %s: %v", from, err)
			}
		}(m.From, m.Body)
	}
}
