package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conceptforge/concept-api/internal/domain/concept"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 4 << 20

// maxErrorBody bounds the body excerpt carried by an UpstreamError.
const maxErrorBody = 2048

// Request describes a single JSON POST to an external service.
type Request struct {
	Service string
	URL     string
	Token   string
	Headers map[string]string
	Body    any
}

// PostJSON sends req once and decodes the answer as a JSON object.
// Transport failures (including timeouts) map to concept.ErrUpstreamTimeout,
// non-2xx answers to *concept.UpstreamError and undecodable bodies to
// concept.ErrUpstreamFormat. There is no retry.
func PostJSON(ctx context.Context, client *http.Client, req Request) (map[string]any, error) {
	reqBody, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.Service, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", req.Service, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", concept.ErrUpstreamTimeout, req.Service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", concept.ErrUpstreamTimeout, req.Service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(body)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &concept.UpstreamError{
			Service:    req.Service,
			StatusCode: resp.StatusCode,
			Body:       excerpt,
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s response: %v", concept.ErrUpstreamFormat, req.Service, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: %s returned an empty document", concept.ErrUpstreamFormat, req.Service)
	}

	return payload, nil
}

// NewHTTPClient returns a client bounded by timeout that logs bodies at debug level.
func NewHTTPClient(timeout time.Duration, logLevel string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &LoggingTransport{
			Base:     http.DefaultTransport,
			LogLevel: logLevel,
		},
	}
}
