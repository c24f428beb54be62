package storer

import (
	"context"
	"errors"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// Storer is a vector backend holding named collections of points.
//
// Search returns records best match first. Scores are higher-is-better for every
// distance; Euclid collections report the negated distance.
type Storer interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, collection Collection) error
	Upsert(ctx context.Context, collection string, points []Point, wait bool) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Record, error)
	Close() error
}
