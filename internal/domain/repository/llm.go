package repository

import (
	"context"
)

// TextGenerator defines the interface for turning a user prompt into descriptive text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// BackendType names a configured text generation backend.
type BackendType string
