package database

import (
	"context"

	"github.com/conceptforge/concept-api/internal/database/models"
)

// ConceptRepository handles archived concept persistence. The archive is append-only:
// there is no update or delete.
type ConceptRepository interface {
	// EnsureSchema creates the concepts table when missing. Calling it on an
	// initialized database changes nothing.
	EnsureSchema(ctx context.Context) error
	InsertConcept(ctx context.Context, c *models.Concept) (int64, error)
	ListConceptsByCreatedAtDesc(ctx context.Context) ([]*models.Concept, error)
	Close() error
}
