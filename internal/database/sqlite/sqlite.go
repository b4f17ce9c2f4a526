package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conceptforge/concept-api/internal/database"
	"github.com/conceptforge/concept-api/internal/database/models"
	_ "github.com/mattn/go-sqlite3"
)

var _ database.ConceptRepository = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS concepts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt TEXT NOT NULL,
	generated_text TEXT NOT NULL,
	image_urls TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_concepts_created_at ON concepts(created_at);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// One connection keeps writes serialized and the pragmas below in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create concepts table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertConcept(ctx context.Context, c *models.Concept) (int64, error) {
	query := `INSERT INTO concepts (prompt, generated_text, image_urls) VALUES (?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, c.Prompt, c.GeneratedText, c.ImageURLs)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (s *SQLiteStore) ListConceptsByCreatedAtDesc(ctx context.Context) ([]*models.Concept, error) {
	query := `SELECT id, prompt, generated_text, image_urls, created_at FROM concepts ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	concepts := make([]*models.Concept, 0)
	for rows.Next() {
		c := &models.Concept{}
		if err := rows.Scan(&c.ID, &c.Prompt, &c.GeneratedText, &c.ImageURLs, &c.CreatedAt); err != nil {
			return nil, err
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}
