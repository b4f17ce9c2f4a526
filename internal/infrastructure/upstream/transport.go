package upstream

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
)

// maxLoggedBody keeps debug lines readable when a service answers with a large document.
const maxLoggedBody = 4096

// LoggingTransport is an http.RoundTripper that logs outbound request and response
// bodies when LogLevel is "debug". Headers are never logged since they carry tokens.
type LoggingTransport struct {
	Base     http.RoundTripper
	LogLevel string
}

func (t *LoggingTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.ToLower(t.LogLevel) != "debug" {
		return t.base().RoundTrip(req)
	}

	if req.Body != nil {
		reqBody, _ := io.ReadAll(req.Body)
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
		log.Printf("[Upstream] --> %s %s %s", req.Method, req.URL.Redacted(), clip(reqBody))
	} else {
		log.Printf("[Upstream] --> %s %s", req.Method, req.URL.Redacted())
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		log.Printf("[Upstream] <-- %s failed: %v", req.URL.Redacted(), err)
		return resp, err
	}

	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	if readErr != nil {
		return resp, readErr
	}

	log.Printf("[Upstream] <-- %d %s %s", resp.StatusCode, req.URL.Redacted(), clip(respBody))
	return resp, nil
}

func clip(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}
