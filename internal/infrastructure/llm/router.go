package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/conceptforge/concept-api/internal/config"
	"github.com/conceptforge/concept-api/internal/domain/repository"
	"github.com/conceptforge/concept-api/internal/infrastructure/upstream"
)

// Router selects the text backend that serves generation requests.
type Router struct {
	clients map[repository.BackendType]repository.TextGenerator
}

// NewRouter initializes the router with the available backend clients.
func NewRouter(clients map[repository.BackendType]repository.TextGenerator) *Router {
	return &Router{clients: clients}
}

// Route returns the client registered for backend.
func (r *Router) Route(backend repository.BackendType) (repository.TextGenerator, error) {
	selected, ok := r.clients[repository.BackendType(strings.ToLower(string(backend)))]
	if !ok || selected == nil {
		return nil, fmt.Errorf("no text backend registered for %q", backend)
	}

	log.Printf("[Router] Routing text generation to %s", selected.Name())
	return selected, nil
}

// NewTextGenerator builds the client for cfg.TextBackend. Only the selected
// backend is constructed so that credentials for the others are never required.
// Callers should close the result if it implements io.Closer.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (repository.TextGenerator, error) {
	backend := repository.BackendType(cfg.TextBackend)
	clients := make(map[repository.BackendType]repository.TextGenerator, 1)

	switch backend {
	case config.BackendFlowise:
		httpClient := upstream.NewHTTPClient(cfg.TextTimeout, cfg.LogLevel)
		clients[backend] = NewFlowiseClient(cfg.FlowiseAPIURL, cfg.FlowiseBearerToken, httpClient)
	case config.BackendGemini:
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.TextTimeout)
		if err != nil {
			return nil, err
		}
		clients[backend] = client
	case config.BackendOllama:
		httpClient := upstream.NewHTTPClient(cfg.TextTimeout, cfg.LogLevel)
		clients[backend] = NewLocalOllamaClient(cfg.OllamaHost, cfg.OllamaModel, httpClient)
	default:
		return nil, fmt.Errorf("unsupported text backend %q", cfg.TextBackend)
	}

	return NewRouter(clients).Route(backend)
}
