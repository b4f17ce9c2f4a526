package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/conceptforge/concept-api/internal/usecase/generation"
	"github.com/google/uuid"
)

// maxRequestBytes bounds JSON request bodies.
const maxRequestBytes = 1 << 20

// Generator runs the generation pipeline for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*concept.Generation, error)
}

// Archive records and lists concepts.
type Archive interface {
	Record(ctx context.Context, prompt, generatedText string, imageURLs []string) (int64, error)
	List(ctx context.Context) ([]concept.Concept, error)
}

// Server holds the dependencies for the HTTP API server
type Server struct {
	generator Generator
	archive   Archive
}

// NewServer initializes a new API server with the required dependencies
func NewServer(gen Generator, archive Archive) *Server {
	return &Server{
		generator: gen,
		archive:   archive,
	}
}

// RegisterRoutes registers all API endpoints and wraps them with request ids.
func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/archive", s.handleArchiveCreate)
	mux.HandleFunc("GET /api/archive", s.handleArchiveList)

	return withRequestID(mux)
}

type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

type ArchiveRequest struct {
	Prompt        string   `json:"prompt"`
	GeneratedText string   `json:"generated_text"`
	ImageURLs     []string `json:"image_urls"`
}

type ArchiveResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	result, err := s.generator.Generate(r.Context(), req.Prompt)
	if err != nil {
		status, message := classifyGenerateError(err)
		writeError(w, r, status, message, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func classifyGenerateError(err error) (int, string) {
	if errors.Is(err, concept.ErrInvalidInput) {
		return http.StatusBadRequest, "Prompt is required"
	}

	var stageErr *concept.StageError
	if errors.As(err, &stageErr) {
		switch generation.State(stageErr.Stage) {
		case generation.StateTextRequested:
			return http.StatusInternalServerError, "Failed to get valid response from text service"
		case generation.StateImagesRequested:
			return http.StatusInternalServerError, "Failed to generate images"
		}
	}
	return http.StatusInternalServerError, "Failed to generate concept"
}

func (s *Server) handleArchiveCreate(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	id, err := s.archive.Record(r.Context(), req.Prompt, req.GeneratedText, req.ImageURLs)
	if err != nil {
		if errors.Is(err, concept.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "Missing data for archiving (prompt, generated_text, image_urls required)", err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to archive concept due to database error", err)
		return
	}

	writeJSON(w, http.StatusCreated, ArchiveResponse{ID: id, Message: "Concept archived successfully"})
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	concepts, err := s.archive.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to load archive", err)
		return
	}
	writeJSON(w, http.StatusOK, concepts)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", concept.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Server] Failed to encode response: %v", err)
	}
}

// writeError logs the full error chain and answers with a generic message plus details.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	log.Printf("[Server] %s %s failed (request %s, kind %s): %v",
		r.Method, r.URL.Path, w.Header().Get(requestIDHeader), concept.Kind(err), err)
	writeJSON(w, status, ErrorResponse{Error: message, Details: err.Error()})
}

const requestIDHeader = "X-Request-ID"

// withRequestID tags every response with a request id, reusing a well-formed
// incoming one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[Server] %s %s (request %s) in %v", r.Method, r.URL.Path, id, time.Since(start))
	})
}
