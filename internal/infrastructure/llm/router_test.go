package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/conceptforge/concept-api/internal/config"
	"github.com/conceptforge/concept-api/internal/domain/repository"
	"github.com/conceptforge/concept-api/internal/infrastructure/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements repository.TextGenerator for testing.
type mockClient struct {
	name string
}

func (m *mockClient) Generate(ctx context.Context, prompt string) (string, error) {
	return "Mock response from: " + m.name, nil
}

func (m *mockClient) Name() string {
	return m.name
}

func TestRouter_Route(t *testing.T) {
	router := llm.NewRouter(map[repository.BackendType]repository.TextGenerator{
		config.BackendFlowise: &mockClient{name: "flowise"},
		config.BackendOllama:  &mockClient{name: "local_ollama"},
	})

	tests := []struct {
		name         string
		backend      repository.BackendType
		expectedName string
		wantErr      bool
	}{
		{name: "Flowise is selected", backend: "flowise", expectedName: "flowise"},
		{name: "Backend names are case-insensitive", backend: "OLLAMA", expectedName: "local_ollama"},
		{name: "Unregistered backend fails", backend: "gemini", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := router.Route(tt.backend)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, client.Name())
		})
	}
}

func TestNewTextGenerator(t *testing.T) {
	base := config.Config{
		FlowiseAPIURL: "http://flowise.local/api/v1/prediction/abc",
		OllamaHost:    "http://localhost:11434",
		OllamaModel:   "llama3",
		TextTimeout:   time.Second,
	}

	t.Run("flowise", func(t *testing.T) {
		cfg := base
		cfg.TextBackend = config.BackendFlowise
		gen, err := llm.NewTextGenerator(context.Background(), &cfg)
		require.NoError(t, err)
		assert.IsType(t, &llm.FlowiseClient{}, gen)
	})

	t.Run("ollama", func(t *testing.T) {
		cfg := base
		cfg.TextBackend = config.BackendOllama
		gen, err := llm.NewTextGenerator(context.Background(), &cfg)
		require.NoError(t, err)
		assert.IsType(t, &llm.LocalOllamaClient{}, gen)
	})

	t.Run("gemini without key", func(t *testing.T) {
		cfg := base
		cfg.TextBackend = config.BackendGemini
		_, err := llm.NewTextGenerator(context.Background(), &cfg)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base
		cfg.TextBackend = "openai"
		_, err := llm.NewTextGenerator(context.Background(), &cfg)
		assert.Error(t, err)
	})
}
