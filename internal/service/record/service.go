package record

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/embedder"
	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/storer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/w-h-a/consult/internal/service/record")

type Service struct {
	storer     storer.Storer
	embedder   embedder.Embedder
	collection string
	dimension  int
}

// Store embeds the transcription and writes it with its payload as one new record.
// It returns only after the backend acknowledged the write.
func (s *Service) Store(ctx context.Context, transcription string, extracted conversation.ExtractedData, metadata conversation.Metadata) (string, error) {
	ctx, span := tracer.Start(ctx, "record.store")
	defer span.End()

	if len(strings.TrimSpace(transcription)) == 0 {
		return "", errs.New(errs.CodeValidationInvalidInput, "transcription must not be empty")
	}

	vector, err := s.embedder.Embed(ctx, transcription)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "failed to embed transcription", "error", err)
		return "", errs.Wrap(err, errs.CodeStorageUnavailable, "failed to embed transcription")
	}

	if err := embedder.CheckDimension(vector, s.dimension); err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "embedding does not fit collection", "collection", s.collection, "error", err)
		return "", errs.Wrap(err, errs.CodeStorageDimensionMismatch, "embedding does not fit collection", errs.FieldCollection(s.collection))
	}

	id := uuid.NewString()

	span.SetAttributes(attribute.String("record.id", id), attribute.String("record.collection", s.collection))

	payload := conversation.Payload{
		Transcription:      transcription,
		ExtractedData:      extracted,
		ProcessingMetadata: metadata,
	}

	if err := s.storer.Upsert(ctx, s.collection, []storer.Point{{
		Id:      id,
		Vector:  vector,
		Payload: payload.Map(),
	}}, true); err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "failed to store record", "collection", s.collection, "error", err)

		code := errs.CodeStorageUnavailable
		if errors.Is(err, storer.ErrDimensionMismatch) {
			code = errs.CodeStorageDimensionMismatch
		}

		return "", errs.Wrap(err, code, "failed to store record", errs.FieldCollection(s.collection))
	}

	slog.InfoContext(ctx, "stored record", "id", id, "collection", s.collection)

	return id, nil
}

func New(
	storer storer.Storer,
	embedder embedder.Embedder,
	collection string,
) *Service {
	return &Service{
		storer:     storer,
		embedder:   embedder,
		collection: collection,
		dimension:  embedder.Dimension(),
	}
}
