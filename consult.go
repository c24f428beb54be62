package consult

import (
	"context"
	"log/slog"

	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/internal/service/answer"
	"github.com/w-h-a/consult/internal/service/chat"
	"github.com/w-h-a/consult/internal/service/collection"
	"github.com/w-h-a/consult/internal/service/extraction"
	"github.com/w-h-a/consult/internal/service/ingest"
	"github.com/w-h-a/consult/internal/service/record"
	"github.com/w-h-a/consult/internal/service/retrieval"
	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/storer"
)

type (
	Upload       = ingest.Upload
	IngestResult = ingest.IngestResult
	Outcome      = ingest.Outcome
)

// Consult is the service handle. Build it once with New and share it; every
// method is safe for concurrent use.
type Consult struct {
	options   Options
	chat      *chat.Service
	retrieval *retrieval.Service
	record    *record.Service
	ingest    *ingest.Service
}

func (c *Consult) Answer(ctx context.Context, question string) (conversation.AnswerResult, error) {
	return c.chat.Answer(ctx, question)
}

func (c *Consult) Retrieve(ctx context.Context, query string, topK int) []conversation.Hit {
	return c.retrieval.Retrieve(ctx, query, topK)
}

func (c *Consult) Store(ctx context.Context, transcription string, extracted conversation.ExtractedData, metadata conversation.Metadata) (string, error) {
	return c.record.Store(ctx, transcription, extracted, metadata)
}

func (c *Consult) Ingest(ctx context.Context, upload Upload) (IngestResult, error) {
	return c.ingest.Ingest(ctx, upload)
}

func (c *Consult) IngestAll(ctx context.Context, uploads []Upload) []Outcome {
	return c.ingest.IngestAll(ctx, uploads)
}

func (c *Consult) Close() error {
	c.ingest.Release()
	return c.options.Storer.Close()
}

// New wires every service and makes sure the collection exists. A backend that
// is down at startup is logged and does not stop the handle from being built.
func New(opts ...Option) (*Consult, error) {
	options := NewOptions(opts...)

	if options.Storer == nil || options.Embedder == nil || options.Generator == nil {
		return nil, errs.New(errs.CodeConfigOptionInvalid, "storer, embedder and generator are required")
	}

	if len(options.Collection) == 0 {
		return nil, errs.New(errs.CodeConfigOptionInvalid, "collection name is required")
	}

	if err := collection.New(options.Storer).EnsureCollection(
		options.Context,
		options.Collection,
		options.Embedder.Dimension(),
		storer.Cosine,
	); err != nil {
		slog.ErrorContext(options.Context, "collection is not ready, continuing", "collection", options.Collection, "error", err)
	}

	retrievalService := retrieval.New(options.Storer, options.Embedder, options.Collection, options.TopK)

	recordService := record.New(options.Storer, options.Embedder, options.Collection)

	chatService := chat.New(
		retrievalService,
		answer.New(options.Generator, options.GenerationTimeout),
		options.TopK,
	)

	ingestService, err := ingest.New(
		options.Transcriber,
		extraction.New(options.Generator, options.ExtractionRetries, options.ExtractionBackoff, options.GenerationTimeout),
		recordService,
		options.Workers,
	)
	if err != nil {
		return nil, err
	}

	return &Consult{
		options:   options,
		chat:      chatService,
		retrieval: retrievalService,
		record:    recordService,
		ingest:    ingestService,
	}, nil
}
