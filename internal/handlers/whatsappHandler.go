package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// graphAPIBaseURL is the Meta Graph API root used for WhatsApp Cloud calls.
const graphAPIBaseURL = "https://graph.facebook.com/v18.0"

// WhatsAppHandler sends messages through the WhatsApp Cloud API and verifies
// webhook subscriptions.
type WhatsAppHandler struct {
	apiKey        string
	phoneNumberID string
	verifyToken   string

	// baseURL is overridable in tests.
	baseURL    string
	httpClient *http.Client
}

type whatsappTextPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type whatsappSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewWhatsAppHandler creates a WhatsAppHandler. apiKey is the Cloud API
// access token, phoneNumberID identifies the sending number, verifyToken is
// the shared secret echoed during webhook verification.
func NewWhatsAppHandler(apiKey, phoneNumberID, verifyToken string) (*WhatsAppHandler, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("whatsapp API key is required")
	}
	if phoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp phone number ID is required")
	}

	return &WhatsAppHandler{
		apiKey:        apiKey,
		phoneNumberID: phoneNumberID,
		verifyToken:   verifyToken,
		baseURL:       graphAPIBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SendText sends a plain text message to the given recipient phone number.
// Returns the provider message ID.
func (h *WhatsAppHandler) SendText(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("recipient phone is required")
	}
	if body == "" {
		return "", fmt.Errorf("message body is required")
	}

	payload := whatsappTextPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	payload.Text.Body = body

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", h.baseURL, h.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[WhatsAppHandler] Sending text message to %s (%d chars)", to, len(body))

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var parsed whatsappSendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse whatsapp response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		if parsed.Error != nil {
			log.Printf("[WhatsAppHandler] Send failed: code=%d type=%s msg=%s", parsed.Error.Code, parsed.Error.Type, parsed.Error.Message)
			return "", fmt.Errorf("whatsapp API error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("whatsapp API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	messageID := ""
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}
	log.Printf("[WhatsAppHandler] Message sent successfully: id=%s", messageID)
	return messageID, nil
}

// VerifyWebhook checks a Meta webhook subscription handshake. Returns the
// challenge to echo back and whether the handshake is valid.
func (h *WhatsAppHandler) VerifyWebhook(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token != "" && token == h.verifyToken {
		return challenge, true
	}
	log.Printf("[WhatsAppHandler] Webhook verification rejected: mode=%s", mode)
	return "", false
}
