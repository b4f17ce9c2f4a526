package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["question"])

		_ = json.NewEncoder(w).Encode(map[string]any{"text": "answer"})
	}))
	defer ts.Close()

	payload, err := PostJSON(context.Background(), ts.Client(), Request{
		Service: "test",
		URL:     ts.URL,
		Token:   "secret",
		Headers: map[string]string{"X-Extra": "yes"},
		Body:    map[string]string{"question": "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", payload["text"])
}

func TestPostJSON_NoTokenNoAuthHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := PostJSON(context.Background(), ts.Client(), Request{Service: "test", URL: ts.URL, Body: struct{}{}})
	require.NoError(t, err)
}

func TestPostJSON_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer ts.Close()

	_, err := PostJSON(context.Background(), ts.Client(), Request{Service: "test", URL: ts.URL, Body: struct{}{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, concept.ErrUpstream)

	var upErr *concept.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
	assert.Equal(t, "upstream down", upErr.Body)
}

func TestPostJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	client := NewHTTPClient(50*time.Millisecond, "info")
	_, err := PostJSON(context.Background(), client, Request{Service: "test", URL: ts.URL, Body: struct{}{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, concept.ErrUpstreamTimeout)
}

func TestPostJSON_ConnectionRefused(t *testing.T) {
	_, err := PostJSON(context.Background(), http.DefaultClient, Request{Service: "test", URL: "http://127.0.0.1:1", Body: struct{}{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, concept.ErrUpstreamTimeout)
}

func TestPostJSON_BadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"not json": "plain text",
		"array":    `["a"]`,
		"null":     `null`,
	} {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			_, err := PostJSON(context.Background(), ts.Client(), Request{Service: "test", URL: ts.URL, Body: struct{}{}})
			require.Error(t, err)
			assert.ErrorIs(t, err, concept.ErrUpstreamFormat)
		})
	}
}

func TestLoggingTransport_DebugPreservesBodies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": body["question"]})
	}))
	defer ts.Close()

	client := NewHTTPClient(time.Second, "debug")
	payload, err := PostJSON(context.Background(), client, Request{Service: "test", URL: ts.URL, Body: map[string]string{"question": "ping"}})
	require.NoError(t, err)
	assert.Equal(t, "ping", payload["echo"])
}
