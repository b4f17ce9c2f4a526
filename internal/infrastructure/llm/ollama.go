package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/conceptforge/concept-api/internal/domain/repository"
	"github.com/conceptforge/concept-api/internal/infrastructure/upstream"
)

var _ repository.TextGenerator = (*LocalOllamaClient)(nil)

var ollamaExtractors = []upstream.Extractor{upstream.Field("response")}

// LocalOllamaClient implements repository.TextGenerator by calling a local Ollama server.
type LocalOllamaClient struct {
	host   string
	model  string
	client *http.Client
}

// NewLocalOllamaClient initializes a new client for a local Ollama instance.
func NewLocalOllamaClient(host string, model string, client *http.Client) *LocalOllamaClient {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &LocalOllamaClient{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: client,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// Generate sends a prompt to the local Ollama instance.
func (c *LocalOllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", concept.ErrInvalidInput)
	}

	log.Printf("[Ollama] Sending request to local Ollama (%s)...", c.model)

	payload, err := upstream.PostJSON(ctx, c.client, upstream.Request{
		Service: "ollama",
		URL:     c.host + "/api/generate",
		Body: ollamaRequest{
			Model:  c.model,
			Prompt: prompt,
			Stream: false,
		},
	})
	if err != nil {
		return "", err
	}

	text, err := upstream.Extract(payload, ollamaExtractors)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}

	log.Printf("[Ollama] Response received from local model.")
	return text, nil
}

// Name returns the descriptive name of the client.
func (c *LocalOllamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s) [Local]", c.model)
}

// PullModel pulls the configured model from the Ollama library.
func (c *LocalOllamaClient) PullModel(ctx context.Context) error {
	log.Printf("[Ollama] Pulling model '%s'...", c.model)

	if _, err := upstream.PostJSON(ctx, c.client, upstream.Request{
		Service: "ollama",
		URL:     c.host + "/api/pull",
		Body:    ollamaPullRequest{Model: c.model, Stream: false},
	}); err != nil {
		return fmt.Errorf("ollama pull failed: %w", err)
	}

	log.Printf("[Ollama] Model '%s' pulled successfully.", c.model)
	return nil
}
