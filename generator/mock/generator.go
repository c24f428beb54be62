package mock

import (
	"context"
	"sync"

	"github.com/w-h-a/consult/generator"
)

// Generator is a test double. GenerateFunc decides the reply; calls are recorded.
type Generator struct {
	GenerateFunc func(ctx context.Context, prompt string, opts generator.GenerateOptions) (string, error)

	mtx     sync.Mutex
	prompts []string
	options []generator.GenerateOptions
}

func (g *Generator) Generate(ctx context.Context, prompt string, opts ...generator.GenerateOption) (string, error) {
	options := generator.NewGenerateOptions(opts...)

	g.mtx.Lock()
	g.prompts = append(g.prompts, prompt)
	g.options = append(g.options, options)
	g.mtx.Unlock()

	if g.GenerateFunc != nil {
		return g.GenerateFunc(ctx, prompt, options)
	}

	return "mock answer", nil
}

func (g *Generator) Calls() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return len(g.prompts)
}

func (g *Generator) Prompts() []string {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return append([]string(nil), g.prompts...)
}

func (g *Generator) Options() []generator.GenerateOptions {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return append([]generator.GenerateOptions(nil), g.options...)
}

func Reply(text string) *Generator {
	return &Generator{
		GenerateFunc: func(context.Context, string, generator.GenerateOptions) (string, error) {
			return text, nil
		},
	}
}

func Fail(err error) *Generator {
	return &Generator{
		GenerateFunc: func(context.Context, string, generator.GenerateOptions) (string, error) {
			return "", err
		},
	}
}
