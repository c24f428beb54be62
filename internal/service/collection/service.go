package collection

import (
	"context"
	"log/slog"
	"slices"

	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/storer"
)

type Service struct {
	storer storer.Storer
}

// EnsureCollection creates the collection when it is missing. An existing
// collection is left untouched, whatever its dimension or distance.
func (s *Service) EnsureCollection(ctx context.Context, name string, dimension int, distance storer.Distance) error {
	if len(name) == 0 || dimension < 1 {
		return errs.New(errs.CodeValidationInvalidInput, "collection name and a positive dimension are required", errs.FieldCollection(name))
	}

	exists, err := s.exists(ctx, name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list collections", "collection", name, "error", err)
		return errs.Wrap(err, errs.CodeStorageUnavailable, "failed to list collections", errs.FieldCollection(name))
	}

	if exists {
		slog.DebugContext(ctx, "collection already exists", "collection", name)
		return nil
	}

	if err := s.storer.CreateCollection(ctx, storer.Collection{
		Name:      name,
		Dimension: dimension,
		Distance:  distance,
	}); err != nil {
		// another process may have won the race between list and create
		if again, listErr := s.exists(ctx, name); listErr == nil && again {
			return nil
		}
		slog.ErrorContext(ctx, "failed to create collection", "collection", name, "error", err)
		return errs.Wrap(err, errs.CodeStorageUnavailable, "failed to create collection", errs.FieldCollection(name))
	}

	slog.InfoContext(ctx, "created collection", "collection", name, "dimension", dimension, "distance", distance)

	return nil
}

func (s *Service) exists(ctx context.Context, name string) (bool, error) {
	names, err := s.storer.ListCollections(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func New(storer storer.Storer) *Service {
	return &Service{
		storer: storer,
	}
}
