package generator

import "context"

// Generator turns a prompt into text. Implementations are safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
}
