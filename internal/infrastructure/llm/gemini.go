package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/conceptforge/concept-api/internal/domain/repository"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ repository.TextGenerator = (*GeminiClient)(nil)

// GeminiClient implements repository.TextGenerator with the Gemini API.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	timeout   time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key must not be empty")
	}
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     client.GenerativeModel(modelName),
		modelName: modelName,
		timeout:   timeout,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", concept.ErrInvalidInput)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.Printf("[Gemini] Sending request to %s...", c.modelName)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	log.Printf("[Gemini] Response received successfully.")
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned from gemini", concept.ErrUpstreamFormat)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: gemini candidate has no content (finish reason %v)", concept.ErrUpstreamFormat, candidate.FinishReason)
	}

	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok && strings.TrimSpace(string(text)) != "" {
			return strings.TrimSpace(string(text)), nil
		}
	}

	return "", fmt.Errorf("%w: no text part in gemini response", concept.ErrUpstreamFormat)
}

// grpcHTTPStatus approximates the HTTP status for gRPC codes seen from the Gemini API.
var grpcHTTPStatus = map[codes.Code]int{
	codes.InvalidArgument:   http.StatusBadRequest,
	codes.Unauthenticated:   http.StatusUnauthorized,
	codes.PermissionDenied:  http.StatusForbidden,
	codes.NotFound:          http.StatusNotFound,
	codes.ResourceExhausted: http.StatusTooManyRequests,
	codes.Internal:          http.StatusInternalServerError,
	codes.Unimplemented:     http.StatusNotImplemented,
}

// classifyGeminiError maps a client error onto the upstream error taxonomy.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini: %w", concept.ErrUpstreamTimeout, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &concept.UpstreamError{Service: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded, codes.Unavailable:
			return fmt.Errorf("%w: gemini: %w", concept.ErrUpstreamTimeout, err)
		}
		code, known := grpcHTTPStatus[st.Code()]
		if !known {
			code = http.StatusBadGateway
		}
		return &concept.UpstreamError{Service: "gemini", StatusCode: code, Body: st.Message()}
	}

	return fmt.Errorf("%w: gemini request failed: %w", concept.ErrUpstreamTimeout, err)
}

func (c *GeminiClient) Name() string {
	return fmt.Sprintf("Gemini (%s) [Cloud]", c.modelName)
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
