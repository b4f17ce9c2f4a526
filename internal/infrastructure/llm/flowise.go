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

var _ repository.TextGenerator = (*FlowiseClient)(nil)

// FlowiseAnswerExtractors is the order in which answer fields are probed.
// Flowise chatflows answer in "text"; agent flows and custom nodes use the others.
var FlowiseAnswerExtractors = []upstream.Extractor{
	upstream.Field("text"),
	upstream.Field("output"),
	upstream.Field("message"),
}

// FlowiseClient implements repository.TextGenerator against a Flowise prediction endpoint.
type FlowiseClient struct {
	endpoint   string
	token      string
	client     *http.Client
	extractors []upstream.Extractor
}

type flowiseRequest struct {
	Question string `json:"question"`
}

// NewFlowiseClient builds a client for endpoint. An empty token disables the
// Authorization header. client carries the request timeout.
func NewFlowiseClient(endpoint, token string, client *http.Client) *FlowiseClient {
	return &FlowiseClient{
		endpoint:   endpoint,
		token:      token,
		client:     client,
		extractors: FlowiseAnswerExtractors,
	}
}

// Generate sends prompt as a question and returns the normalized answer text.
func (c *FlowiseClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", concept.ErrInvalidInput)
	}

	log.Printf("[Flowise] Sending prediction request...")

	payload, err := upstream.PostJSON(ctx, c.client, upstream.Request{
		Service: "flowise",
		URL:     c.endpoint,
		Token:   c.token,
		Body:    flowiseRequest{Question: prompt},
	})
	if err != nil {
		return "", err
	}

	text, err := upstream.Extract(payload, c.extractors)
	if err != nil {
		return "", fmt.Errorf("flowise: %w", err)
	}

	log.Printf("[Flowise] Response received (%d chars).", len(text))
	return text, nil
}

func (c *FlowiseClient) Name() string {
	return "Flowise"
}
