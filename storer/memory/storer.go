package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/storer"
)

type collection struct {
	info    storer.Collection
	records map[string]point
}

type point struct {
	vector  []float32
	payload map[string]any
}

type memoryStorer struct {
	options     storer.Options
	collections map[string]*collection
	mtx         sync.RWMutex
}

func (s *memoryStorer) ListCollections(ctx context.Context) ([]string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}

func (s *memoryStorer) CreateCollection(ctx context.Context, c storer.Collection) error {
	if len(c.Name) == 0 || c.Dimension < 1 {
		return fmt.Errorf("invalid collection %q with dimension %d", c.Name, c.Dimension)
	}

	if len(c.Distance) == 0 {
		c.Distance = storer.Cosine
	}

	if !c.Distance.Valid() {
		return fmt.Errorf("unsupported distance %q", c.Distance)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.collections[c.Name]; ok {
		return fmt.Errorf("collection %q already exists", c.Name)
	}

	s.collections[c.Name] = &collection{
		info:    c,
		records: map[string]point{},
	}

	return nil
}

// Upsert applies immediately, so wait has no effect.
func (s *memoryStorer) Upsert(ctx context.Context, name string, points []storer.Point, wait bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", storer.ErrCollectionNotFound, name)
	}

	staged := make(map[string]point, len(points))

	for _, p := range points {
		if len(p.Id) == 0 {
			return fmt.Errorf("point id is required")
		}

		if len(p.Vector) != c.info.Dimension {
			return fmt.Errorf("%w: got %d, collection %q expects %d", storer.ErrDimensionMismatch, len(p.Vector), name, c.info.Dimension)
		}

		payload, err := conversation.Normalize(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		cpy := make([]float32, len(p.Vector))
		copy(cpy, p.Vector)

		staged[p.Id] = point{vector: cpy, payload: payload}
	}

	for id, p := range staged {
		c.records[id] = p
	}

	return nil
}

func (s *memoryStorer) Search(ctx context.Context, name string, vector []float32, limit int) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storer.ErrCollectionNotFound, name)
	}

	if len(vector) != c.info.Dimension {
		return nil, fmt.Errorf("%w: got %d, collection %q expects %d", storer.ErrDimensionMismatch, len(vector), name, c.info.Dimension)
	}

	candidates := make([]storer.Record, 0, len(c.records))

	for id, p := range c.records {
		candidates = append(candidates, storer.Record{
			Id:      id,
			Score:   storer.Score(c.info.Distance, vector, p.vector),
			Payload: copyPayload(p.payload),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Id < candidates[j].Id
		}
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (s *memoryStorer) Close() error {
	return nil
}

// copyPayload hands out a fresh copy so callers cannot mutate stored state.
func copyPayload(payload map[string]any) map[string]any {
	out, err := conversation.Normalize(payload)
	if err != nil {
		return map[string]any{}
	}
	return out
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	return &memoryStorer{
		options:     options,
		collections: map[string]*collection{},
		mtx:         sync.RWMutex{},
	}
}
