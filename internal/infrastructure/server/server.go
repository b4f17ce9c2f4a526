package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/conceptforge/concept-api/internal/config"
	"github.com/conceptforge/concept-api/internal/infrastructure/image"
	"github.com/conceptforge/concept-api/internal/infrastructure/llm"
	"github.com/conceptforge/concept-api/internal/infrastructure/upstream"
	httpserver "github.com/conceptforge/concept-api/internal/interface/http"
	"github.com/conceptforge/concept-api/internal/usecase/archive"
	"github.com/conceptforge/concept-api/internal/usecase/generation"
)

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
}

func New(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Run wires every dependency and serves HTTP until ctx is cancelled or a
// SIGTERM/SIGINT arrives, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.cfg.Validate(); err != nil {
		_ = ln.Close()
		return err
	}
	for _, warning := range s.cfg.Warnings() {
		log.Printf("[Warning] %s", warning)
	}

	// ==========================================
	// Initialize Dependencies (Dependency Injection)
	// ==========================================

	textGenerator, err := llm.NewTextGenerator(ctx, s.cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	if closer, ok := textGenerator.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}
	if ollama, ok := textGenerator.(*llm.LocalOllamaClient); ok {
		if err := ollama.PullModel(ctx); err != nil {
			log.Printf("[Warning] Failed to pull Ollama model '%s': %v", s.cfg.OllamaModel, err)
		}
	}

	imageClient := image.NewClient(
		s.cfg.ImageAPIURL,
		s.cfg.ImageAPIKey,
		s.cfg.ImageModel,
		s.cfg.ImageSize,
		upstream.NewHTTPClient(s.cfg.ImageTimeout, s.cfg.LogLevel),
	)
	imageGenerator := image.NewGenerator(imageClient, s.cfg.ImageConcurrency, s.cfg.ImagePromptSuffix)
	log.Printf("[System] Pipeline initialized (Text: %s | Images: %s x%d)",
		textGenerator.Name(), imageClient.Name(), s.cfg.ImageConcurrency)

	store, err := OpenArchive(s.cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("[Warning] Failed to close database: %v", closeErr)
		}
	}()

	orchestrator := generation.NewOrchestrator(textGenerator, imageGenerator)
	archiveService := archive.NewService(store)

	// ==========================================
	// Initialize and Start HTTP Server
	// ==========================================

	apiServer := httpserver.NewServer(orchestrator, archiveService)
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: apiServer.RegisterRoutes(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[System] Starting REST API Server on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Printf("[Error] HTTP server failed: %v", err)
			return err
		}
	case <-ctx.Done():
		log.Println("[System] Shutdown signal received. Draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Error] HTTP shutdown error: %v", err)
		return err
	}

	log.Println("[System] Server stopped gracefully.")
	return nil
}
