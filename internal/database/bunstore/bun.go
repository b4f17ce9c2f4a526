package bunstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conceptforge/concept-api/internal/database"
	"github.com/conceptforge/concept-api/internal/database/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var _ database.ConceptRepository = (*BunStore)(nil)

type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps db with the given dialect and makes sure the concepts table exists.
func NewBunStore(db *sql.DB, dialect schema.Dialect) (*BunStore, error) {
	store := &BunStore{db: bun.NewDB(db, dialect)}

	if err := store.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *BunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*models.Concept)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create concepts table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*models.Concept)(nil)).
		Index("idx_concepts_created_at").
		Column("created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create concepts index: %w", err)
	}
	return nil
}

func (s *BunStore) InsertConcept(ctx context.Context, c *models.Concept) (int64, error) {
	res, err := s.db.NewInsert().Model(c).Exec(ctx)
	if err != nil {
		return 0, err
	}
	if c.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		c.ID = id
	}
	return c.ID, nil
}

func (s *BunStore) ListConceptsByCreatedAtDesc(ctx context.Context) ([]*models.Concept, error) {
	concepts := make([]*models.Concept, 0)
	if err := s.db.NewSelect().Model(&concepts).OrderExpr("c.created_at DESC, c.id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return concepts, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}
