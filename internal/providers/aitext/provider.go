package aitext

import (
	"context"
	"errors"
)

// GenerationConfig is passed through to the model on every call.
type GenerationConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopK        int
	TopP        float64
}

type Provider interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

var (
	ErrNotConfigured = errors.New("ai text provider not configured")
	ErrEmptyResponse = errors.New("ai text provider returned no text")
)

// NoOpProvider always fails so callers take their deterministic path.
type NoOpProvider struct{}

func (NoOpProvider) Generate(context.Context, string, GenerationConfig) (string, error) {
	return "", ErrNotConfigured
}
