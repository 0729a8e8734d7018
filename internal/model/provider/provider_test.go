package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBackend(t *testing.T) {
	assert.Equal(t, BackendOpenRouter, DetectBackend(true, true))
	assert.Equal(t, BackendVertexAI, DetectBackend(false, true))
	assert.Equal(t, BackendGemini, DetectBackend(false, false))
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "google/gemini-2.5-flash", DefaultModel(BackendOpenRouter))
	assert.Equal(t, "gemini-2.5-flash", DefaultModel(BackendGemini))
	assert.Equal(t, "gemini-2.5-flash", DefaultModel(BackendVertexAI))
}

func TestNewModel_MissingCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := NewModel(ctx, Config{Backend: BackendGemini, Model: "gemini-2.5-flash"})
	assert.ErrorContains(t, err, "Google API key")

	_, err = NewModel(ctx, Config{Backend: BackendVertexAI, Model: "gemini-2.5-flash"})
	assert.ErrorContains(t, err, "project and location")

	_, err = NewModel(ctx, Config{Backend: BackendOpenRouter, Model: "openai/gpt-4o"})
	assert.ErrorContains(t, err, "OpenRouter API key")

	_, err = NewModel(ctx, Config{Backend: "mistral", Model: "x"})
	assert.ErrorContains(t, err, "unsupported backend")
}
