// Package provider picks and constructs the LLM backend the agent handlers
// run on: Google AI Studio, Vertex AI, or OpenRouter. Credentials arrive
// through Config; resolving environment variables is the config package's
// job, not this one's.
package provider

import (
	"context"
	"fmt"
	"log"

	"brilliox/leadhunter-backend/internal/model/openrouter"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Backend identifies which hosted LLM provider to call
type Backend string

const (
	// BackendGemini uses Google AI Studio (Gemini API)
	BackendGemini Backend = "gemini"
	// BackendVertexAI uses Google Cloud Vertex AI
	BackendVertexAI Backend = "vertexai"
	// BackendOpenRouter uses OpenRouter's OpenAI-compatible API
	BackendOpenRouter Backend = "openrouter"
)

// Config carries everything needed to construct a model on any backend.
type Config struct {
	Backend Backend

	// Model name. Gemini backends take bare names ("gemini-2.5-flash");
	// OpenRouter takes vendor-prefixed ids ("anthropic/claude-3.5-sonnet").
	Model string

	// Google AI Studio
	GoogleAPIKey string

	// Vertex AI
	GCPProject  string
	GCPLocation string

	// OpenRouter
	OpenRouterAPIKey   string
	OpenRouterBaseURL  string
	OpenRouterSiteURL  string // HTTP-Referer for OpenRouter rankings
	OpenRouterSiteName string // X-Title for OpenRouter rankings
}

// NewModel constructs an ADK model for the configured backend.
func NewModel(ctx context.Context, cfg Config) (model.LLM, error) {
	switch cfg.Backend {
	case BackendGemini, BackendVertexAI:
		return newGoogleModel(ctx, cfg)
	case BackendOpenRouter:
		return newOpenRouterModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// newGoogleModel covers both Google backends; they share the genai client
// and differ only in credentials.
func newGoogleModel(ctx context.Context, cfg Config) (model.LLM, error) {
	var clientConfig *genai.ClientConfig

	if cfg.Backend == BackendVertexAI {
		if cfg.GCPProject == "" || cfg.GCPLocation == "" {
			return nil, fmt.Errorf("GCP project and location are required for Vertex AI backend")
		}
		log.Printf("[Provider] Creating Gemini model: %s (Vertex AI, project: %s, location: %s)",
			cfg.Model, cfg.GCPProject, cfg.GCPLocation)
		clientConfig = &genai.ClientConfig{
			Project:  cfg.GCPProject,
			Location: cfg.GCPLocation,
			Backend:  genai.BackendVertexAI,
		}
	} else {
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("Google API key is required for Gemini backend")
		}
		log.Printf("[Provider] Creating Gemini model: %s (Google AI Studio)", cfg.Model)
		clientConfig = &genai.ClientConfig{
			APIKey:  cfg.GoogleAPIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}

	return gemini.NewModel(ctx, cfg.Model, clientConfig)
}

func newOpenRouterModel(ctx context.Context, cfg Config) (model.LLM, error) {
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required for OpenRouter backend")
	}

	log.Printf("[Provider] Creating OpenRouter model: %s", cfg.Model)

	return openrouter.NewModel(ctx, cfg.Model, &openrouter.Config{
		APIKey:   cfg.OpenRouterAPIKey,
		BaseURL:  cfg.OpenRouterBaseURL,
		SiteURL:  cfg.OpenRouterSiteURL,
		SiteName: cfg.OpenRouterSiteName,
	})
}

// DetectBackend maps the configured credentials onto a backend, preferring
// OpenRouter, then Vertex, then plain Gemini.
func DetectBackend(useOpenRouter, useVertexAI bool) Backend {
	if useOpenRouter {
		return BackendOpenRouter
	}
	if useVertexAI {
		return BackendVertexAI
	}
	return BackendGemini
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(backend Backend) string {
	if backend == BackendOpenRouter {
		return "google/gemini-2.5-flash"
	}
	return "gemini-2.5-flash"
}
