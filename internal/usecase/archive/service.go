package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/conceptforge/concept-api/internal/database"
	"github.com/conceptforge/concept-api/internal/database/models"
	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/samber/lo"
)

// Service records and lists archived concepts.
type Service struct {
	repo database.ConceptRepository
}

func NewService(repo database.ConceptRepository) *Service {
	return &Service{repo: repo}
}

// Record validates and stores one concept, returning its id.
func (s *Service) Record(ctx context.Context, prompt, generatedText string, imageURLs []string) (int64, error) {
	if err := validate(prompt, generatedText, imageURLs); err != nil {
		return 0, err
	}

	encoded, err := json.Marshal(imageURLs)
	if err != nil {
		return 0, fmt.Errorf("%w: encoding image urls: %w", concept.ErrStore, err)
	}

	id, err := s.repo.InsertConcept(ctx, &models.Concept{
		Prompt:        prompt,
		GeneratedText: generatedText,
		ImageURLs:     string(encoded),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert concept: %w", concept.ErrStore, err)
	}

	log.Printf("[Archive] Recorded concept %d with %d image(s)", id, len(imageURLs))
	return id, nil
}

func validate(prompt, generatedText string, imageURLs []string) error {
	switch {
	case strings.TrimSpace(prompt) == "":
		return fmt.Errorf("%w: prompt is required", concept.ErrValidation)
	case strings.TrimSpace(generatedText) == "":
		return fmt.Errorf("%w: generated_text is required", concept.ErrValidation)
	case len(imageURLs) == 0:
		return fmt.Errorf("%w: at least one image url is required", concept.ErrValidation)
	case len(imageURLs) > concept.MaxImages:
		return fmt.Errorf("%w: at most %d image urls are allowed, got %d", concept.ErrValidation, concept.MaxImages, len(imageURLs))
	case !lo.EveryBy(imageURLs, func(u string) bool { return strings.TrimSpace(u) != "" }):
		return fmt.Errorf("%w: image urls must not be empty", concept.ErrValidation)
	}
	return nil
}

// List returns every archived concept, newest first. An empty archive yields an
// empty, non-nil slice.
func (s *Service) List(ctx context.Context) ([]concept.Concept, error) {
	rows, err := s.repo.ListConceptsByCreatedAtDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list concepts: %w", concept.ErrStore, err)
	}

	concepts := make([]concept.Concept, 0, len(rows))
	for _, row := range rows {
		urls, err := decodeURLs(row.ImageURLs)
		if err != nil {
			return nil, fmt.Errorf("%w: concept %d has malformed image_urls: %w", concept.ErrStore, row.ID, err)
		}
		concepts = append(concepts, concept.Concept{
			ID:            row.ID,
			Prompt:        row.Prompt,
			GeneratedText: row.GeneratedText,
			ImageURLs:     urls,
			CreatedAt:     row.CreatedAt,
		})
	}
	return concepts, nil
}

func decodeURLs(raw string) ([]string, error) {
	urls := []string{}
	if strings.TrimSpace(raw) == "" {
		return urls, nil
	}
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, err
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}
