package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w-h-a/consult"
	"github.com/w-h-a/consult/embedder"
	googleembedder "github.com/w-h-a/consult/embedder/google"
	"github.com/w-h-a/consult/embedder/hashing"
	openaiembedder "github.com/w-h-a/consult/embedder/openai"
	"github.com/w-h-a/consult/generator"
	"github.com/w-h-a/consult/generator/anthropic"
	googlegenerator "github.com/w-h-a/consult/generator/google"
	openaigenerator "github.com/w-h-a/consult/generator/openai"
	"github.com/w-h-a/consult/storer"
	"github.com/w-h-a/consult/storer/memory"
	"github.com/w-h-a/consult/storer/postgres"
	"github.com/w-h-a/consult/storer/qdrant"
	"github.com/w-h-a/consult/transcriber"
	openaitranscriber "github.com/w-h-a/consult/transcriber/openai"
)

type transcriberNeed int

const (
	noTranscriber transcriberNeed = iota
	// optionalTranscriber falls back to chat only when the transcriber cannot be built.
	optionalTranscriber
	requiredTranscriber
)

func buildConsult(ctx context.Context, g *Globals, need transcriberNeed) (*consult.Consult, error) {
	st, err := buildStorer(ctx, g)
	if err != nil {
		return nil, err
	}

	em, err := buildEmbedder(ctx, g)
	if err != nil {
		st.Close()
		return nil, err
	}

	gen, err := buildGenerator(g)
	if err != nil {
		st.Close()
		return nil, err
	}

	tr, err := needTranscriber(ctx, g, need)
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := []consult.Option{
		consult.WithContext(ctx),
		consult.WithStorer(st),
		consult.WithEmbedder(em),
		consult.WithGenerator(gen),
		consult.WithCollection(g.Collection),
		consult.WithTopK(g.TopK),
		consult.WithGenerationTimeout(g.GenerationTimeout),
		consult.WithWorkers(g.Workers),
	}

	if tr != nil {
		opts = append(opts, consult.WithTranscriber(tr))
	}

	c, err := consult.New(opts...)
	if err != nil {
		st.Close()
		return nil, err
	}

	return c, nil
}

func buildStorer(ctx context.Context, g *Globals) (storer.Storer, error) {
	opts := []storer.Option{
		storer.WithLocation(g.StoreLocation),
		storer.WithApiKey(g.StoreApiKey),
		storer.WithTimeout(g.StoreTimeout),
		storer.WithContext(ctx),
	}

	switch g.Store {
	case "memory":
		return memory.NewStorer(opts...), nil
	case "postgres":
		return postgres.NewStorer(opts...)
	case "qdrant":
		return qdrant.NewStorer(opts...)
	default:
		return nil, fmt.Errorf("unknown store %q", g.Store)
	}
}

func buildEmbedder(ctx context.Context, g *Globals) (embedder.Embedder, error) {
	opts := []embedder.Option{
		embedder.WithModel(g.EmbedderModel),
		embedder.WithDimension(g.Dimension),
		embedder.WithContext(ctx),
	}

	switch g.Embedder {
	case "hashing":
		return hashing.NewEmbedder(opts...)
	case "google":
		return googleembedder.NewEmbedder(append(opts, embedder.WithApiKey(g.GeminiApiKey))...)
	case "openai":
		return openaiembedder.NewEmbedder(append(opts, embedder.WithApiKey(g.OpenaiApiKey))...)
	default:
		return nil, fmt.Errorf("unknown embedder %q", g.Embedder)
	}
}

func buildGenerator(g *Globals) (generator.Generator, error) {
	opts := []generator.Option{
		generator.WithModel(g.Model),
	}

	switch g.Generator {
	case "google":
		return googlegenerator.NewGenerator(append(opts, generator.WithApiKey(g.GeminiApiKey))...)
	case "openai":
		return openaigenerator.NewGenerator(append(opts, generator.WithApiKey(g.OpenaiApiKey))...)
	case "anthropic":
		return anthropic.NewGenerator(append(opts, generator.WithApiKey(g.AnthropicApiKey))...)
	default:
		return nil, fmt.Errorf("unknown generator %q", g.Generator)
	}
}

func needTranscriber(ctx context.Context, g *Globals, need transcriberNeed) (transcriber.Transcriber, error) {
	if need == noTranscriber {
		return nil, nil
	}

	tr, err := buildTranscriber(g)
	if err != nil {
		if need == requiredTranscriber {
			return nil, err
		}
		slog.WarnContext(ctx, "transcriber unavailable, audio ingestion is disabled", "transcriber", g.Transcriber, "error", err)
		return nil, nil
	}

	if tr == nil && need == requiredTranscriber {
		return nil, fmt.Errorf("transcriber %q cannot ingest audio", g.Transcriber)
	}

	return tr, nil
}

// buildTranscriber returns nil for "none"; ingest then fails with a config error.
func buildTranscriber(g *Globals) (transcriber.Transcriber, error) {
	switch g.Transcriber {
	case "none":
		return nil, nil
	case "openai":
		return openaitranscriber.NewTranscriber(
			transcriber.WithApiKey(g.OpenaiApiKey),
			transcriber.WithModel(g.TranscriberModel),
			transcriber.WithLanguage(g.Language),
		)
	default:
		return nil, fmt.Errorf("unknown transcriber %q", g.Transcriber)
	}
}
