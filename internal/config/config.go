package config

import (
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port string

	// Search provider
	SerpAPIKeys []string // rotated round-robin by the hunt rate limiter

	// Supabase
	SupabaseURL string
	SupabaseKey string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// WhatsApp Business (Meta Graph API)
	WhatsAppAPIKey        string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string

	// LLM backends
	GoogleAPIKey     string
	GeminiModel      string
	UseVertexAI      bool
	GCPProject       string
	GCPLocation      string
	OpenRouterAPIKey string
	OpenRouterModel  string
}

// Load reads configuration from environment variables
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			tokenTTL = d
		}
	}

	return &Config{
		Port:                  port,
		SerpAPIKeys:           splitKeys(getEnvWithFallback("SERPAPI_KEYS", "SERPAPI_KEY")),
		SupabaseURL:           os.Getenv("SUPABASE_URL"),
		SupabaseKey:           getEnvWithFallback("SUPABASE_SECRET_KEY", "SUPABASE_KEY"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TokenTTL:              tokenTTL,
		WhatsAppAPIKey:        os.Getenv("WHATSAPP_API_KEY"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppVerifyToken:   os.Getenv("WHATSAPP_WEBHOOK_TOKEN"),
		GoogleAPIKey:          os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:           os.Getenv("GEMINI_MODEL"),
		UseVertexAI:           os.Getenv("GOOGLE_GENAI_USE_VERTEXAI") == "true",
		GCPProject:            os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPLocation:           os.Getenv("GOOGLE_CLOUD_LOCATION"),
		OpenRouterAPIKey:      os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:       os.Getenv("OPENROUTER_MODEL"),
	}
}

// getEnvWithFallback returns the primary env var, falling back to the legacy
// name when the primary is unset or empty.
func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// splitKeys splits a comma-separated key list, trimming blanks.
func splitKeys(raw string) []string {
	if raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
