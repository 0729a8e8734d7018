package dto

// SendMessageRequest represents an outbound message request
// @Description Text message to deliver to a lead over WhatsApp
type SendMessageRequest struct {
	Message string `json:"message" binding:"required,min=1,max=1000"`
	// Channel defaults to whatsapp; "note" records without sending
	Channel string `json:"channel,omitempty" example:"whatsapp"`
}

// WhatsAppWebhook mirrors the Meta Graph webhook envelope for inbound
// messages. Only the fields this service reads are declared.
type WhatsAppWebhook struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Messages         []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// InboundText flattens the webhook envelope into (from, body) pairs.
func (w *WhatsAppWebhook) InboundText() []struct{ From, Body string } {
	var out []struct{ From, Body string }
	for _, e := range w.Entry {
		for _, ch := range e.Changes {
			for _, m := range ch.Value.Messages {
				if m.Type != "text" || m.Text.Body == "" {
					continue
				}
				out = append(out, struct{ From, Body string }{m.From, m.Text.Body})
			}
		}
	}
	return out
}

// ErrorResponse represents an error response
// @Description Error response returned when a request fails
type ErrorResponse struct {
	// Error message describing what went wrong
	Error string `json:"error" example:"lead not found"`
}
