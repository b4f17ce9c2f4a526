package image

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

var _ repository.ImageService = (*Client)(nil)

// URLExtractors is the order in which image URL fields are probed.
var URLExtractors = []upstream.Extractor{
	upstream.FirstOf("data", "url"),
	upstream.Field("url"),
	upstream.Field("image_url"),
}

// Client calls an OpenAI-compatible images endpoint, one image per call.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	size     string
	client   *http.Client
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
	Model  string `json:"model,omitempty"`
}

func NewClient(endpoint, apiKey, model, size string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		size:     size,
		client:   client,
	}
}

// GenerateImage requests a single image for instruction and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, instruction string) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("%w: image instruction is required", concept.ErrInvalidInput)
	}

	payload, err := upstream.PostJSON(ctx, c.client, upstream.Request{
		Service: "image service",
		URL:     c.endpoint,
		Token:   c.apiKey,
		Body: imageRequest{
			Prompt: instruction,
			N:      1,
			Size:   c.size,
			Model:  c.model,
		},
	})
	if err != nil {
		return "", err
	}

	url, err := upstream.Extract(payload, URLExtractors)
	if err != nil {
		return "", fmt.Errorf("image service: %w", err)
	}

	log.Printf("[Image] Received image URL from %s", c.Name())
	return url, nil
}

func (c *Client) Name() string {
	if c.model == "" {
		return "Image API"
	}
	return fmt.Sprintf("Image API (%s)", c.model)
}
