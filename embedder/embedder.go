package embedder

import (
	"context"
	"fmt"
)

// Embedder maps text to a fixed-length vector. Implementations are safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

func CheckDimension(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(vector), dimension)
	}
	return nil
}
