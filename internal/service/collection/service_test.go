package collection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/consult/internal/service/collection"
	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/storer"
	"github.com/w-h-a/consult/storer/memory"
)

type countingStorer struct {
	storer.Storer
	creates int
	listErr error
}

func (c *countingStorer) ListCollections(ctx context.Context) ([]string, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.Storer.ListCollections(ctx)
}

func (c *countingStorer) CreateCollection(ctx context.Context, col storer.Collection) error {
	c.creates++
	return c.Storer.CreateCollection(ctx, col)
}

func TestEnsureCollectionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := &countingStorer{Storer: memory.NewStorer()}
	svc := collection.New(s)

	require.NoError(t, svc.EnsureCollection(ctx, "patient_conversations", 384, storer.Cosine))
	require.NoError(t, svc.EnsureCollection(ctx, "patient_conversations", 384, storer.Cosine))

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"patient_conversations"}, names)
	assert.Equal(t, 1, s.creates)
}

func TestEnsureCollectionNeverRecreatesOnDimensionDrift(t *testing.T) {
	ctx := context.Background()
	s := &countingStorer{Storer: memory.NewStorer()}
	svc := collection.New(s)

	require.NoError(t, svc.EnsureCollection(ctx, "patient_conversations", 384, storer.Cosine))
	require.NoError(t, svc.EnsureCollection(ctx, "patient_conversations", 768, storer.Cosine))

	assert.Equal(t, 1, s.creates)

	// the original collection still enforces its own dimension
	err := s.Upsert(ctx, "patient_conversations", []storer.Point{{Id: "a", Vector: make([]float32, 768)}}, true)
	require.ErrorIs(t, err, storer.ErrDimensionMismatch)
}

func TestEnsureCollectionBackendDown(t *testing.T) {
	s := &countingStorer{Storer: memory.NewStorer(), listErr: errors.New("connection refused")}
	svc := collection.New(s)

	err := svc.EnsureCollection(context.Background(), "patient_conversations", 384, storer.Cosine)
	require.Error(t, err)

	assert.True(t, errs.IsStorage(err))
	assert.Equal(t, 0, s.creates)
}

func TestEnsureCollectionValidatesInput(t *testing.T) {
	svc := collection.New(memory.NewStorer())

	err := svc.EnsureCollection(context.Background(), "", 384, storer.Cosine)
	assert.True(t, errs.IsValidation(err))

	err = svc.EnsureCollection(context.Background(), "c", 0, storer.Cosine)
	assert.True(t, errs.IsValidation(err))
}
