package archive

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/conceptforge/concept-api/internal/database/bunstore"
	"github.com/conceptforge/concept-api/internal/database/models"
	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// fakeRepo is an in-memory ConceptRepository.
type fakeRepo struct {
	rows      []*models.Concept
	insertErr error
	listErr   error
}

func (f *fakeRepo) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeRepo) InsertConcept(ctx context.Context, c *models.Concept) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	c.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, c)
	return c.ID, nil
}

func (f *fakeRepo) ListConceptsByCreatedAtDesc(ctx context.Context) ([]*models.Concept, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Concept, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.rows[i])
	}
	return out, nil
}

func (f *fakeRepo) Close() error { return nil }

func TestRecord_Validation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		text   string
		urls   []string
	}{
		{name: "empty prompt", prompt: " ", text: "t", urls: []string{"u"}},
		{name: "empty text", prompt: "p", text: "", urls: []string{"u"}},
		{name: "no urls", prompt: "p", text: "t", urls: nil},
		{name: "too many urls", prompt: "p", text: "t", urls: []string{"u1", "u2", "u3"}},
		{name: "blank url", prompt: "p", text: "t", urls: []string{"u1", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			_, err := NewService(repo).Record(context.Background(), tt.prompt, tt.text, tt.urls)
			require.Error(t, err)
			assert.ErrorIs(t, err, concept.ErrValidation)
			assert.ErrorIs(t, err, concept.ErrInvalidInput)
			assert.Equal(t, "ValidationError", concept.Kind(err))
			assert.Empty(t, repo.rows)
		})
	}
}

func TestRecord_SerializesURLs(t *testing.T) {
	repo := &fakeRepo{}
	id, err := NewService(repo).Record(context.Background(), "p", "t", []string{"https://a", "https://b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, `["https://a","https://b"]`, repo.rows[0].ImageURLs)
}

func TestRecord_StoreFailure(t *testing.T) {
	cause := errors.New("disk full")
	_, err := NewService(&fakeRepo{insertErr: cause}).Record(context.Background(), "p", "t", []string{"u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, concept.ErrStore)
	assert.ErrorIs(t, err, cause)
}

func TestList_Empty(t *testing.T) {
	got, err := NewService(&fakeRepo{}).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_Errors(t *testing.T) {
	_, err := NewService(&fakeRepo{listErr: errors.New("locked")}).List(context.Background())
	assert.ErrorIs(t, err, concept.ErrStore)

	repo := &fakeRepo{rows: []*models.Concept{{ID: 1, Prompt: "p", GeneratedText: "t", ImageURLs: "not json"}}}
	_, err = NewService(repo).List(context.Background())
	assert.ErrorIs(t, err, concept.ErrStore)
}

func TestList_EmptyURLColumn(t *testing.T) {
	repo := &fakeRepo{rows: []*models.Concept{
		{ID: 1, Prompt: "p", GeneratedText: "t", ImageURLs: ""},
		{ID: 2, Prompt: "p", GeneratedText: "t", ImageURLs: "null"},
	}}
	got, err := NewService(repo).List(context.Background())
	require.NoError(t, err)
	for _, c := range got {
		assert.NotNil(t, c.ImageURLs)
		assert.Empty(t, c.ImageURLs)
	}
}

func TestService_WithBunStore(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := bunstore.NewBunStore(db, sqlitedialect.New())
	require.NoError(t, err)
	svc := NewService(store)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Record(ctx, "a red bicycle", "A detailed red bicycle description.", []string{"https://img/1.png", "https://img/2.png"})
	require.NoError(t, err)
	id, err := svc.Record(ctx, "a lantern city", "Lanterns everywhere.", []string{"https://img/3.png"})
	require.NoError(t, err)

	got, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	want := []concept.Concept{
		{ID: id, Prompt: "a lantern city", GeneratedText: "Lanterns everywhere.", ImageURLs: []string{"https://img/3.png"}},
		{ID: id - 1, Prompt: "a red bicycle", GeneratedText: "A detailed red bicycle description.", ImageURLs: []string{"https://img/1.png", "https://img/2.png"}},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(concept.Concept{}, "CreatedAt")); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got[0].CreatedAt.IsZero())
}
