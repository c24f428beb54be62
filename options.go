package consult

import (
	"context"
	"time"

	"github.com/w-h-a/consult/embedder"
	"github.com/w-h-a/consult/generator"
	"github.com/w-h-a/consult/storer"
	"github.com/w-h-a/consult/transcriber"
)

const DefaultCollection = "patient_conversations"

type Option func(*Options)

type Options struct {
	Storer            storer.Storer
	Embedder          embedder.Embedder
	Generator         generator.Generator
	Transcriber       transcriber.Transcriber
	Collection        string
	TopK              int
	GenerationTimeout time.Duration
	ExtractionRetries int
	ExtractionBackoff time.Duration
	Workers           int
	Context           context.Context
}

func WithStorer(s storer.Storer) Option {
	return func(o *Options) {
		o.Storer = s
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func WithGenerator(g generator.Generator) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

// WithTranscriber enables audio ingestion.
func WithTranscriber(t transcriber.Transcriber) Option {
	return func(o *Options) {
		o.Transcriber = t
	}
}

func WithCollection(name string) Option {
	return func(o *Options) {
		o.Collection = name
	}
}

func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

func WithGenerationTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.GenerationTimeout = timeout
	}
}

func WithExtractionRetries(n int, backoff time.Duration) Option {
	return func(o *Options) {
		o.ExtractionRetries = n
		o.ExtractionBackoff = backoff
	}
}

func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Collection:        DefaultCollection,
		ExtractionRetries: -1,
		Context:           context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
