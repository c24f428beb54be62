package ingest

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/internal/service/extraction"
	"github.com/w-h-a/consult/internal/service/record"
	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/transcriber"
)

const DefaultWorkers = 4

// Upload is an audio file already on local disk. Filename is the name the
// client gave it and Path where it was saved.
type Upload struct {
	Path     string
	Filename string
}

type IngestResult struct {
	Id                    string                     `json:"id"`
	Filename              string                     `json:"filename"`
	Language              string                     `json:"language"`
	Transcription         string                     `json:"transcription"`
	ExtractedData         conversation.ExtractedData `json:"extracted_data"`
	ProcessingTimeSeconds float64                    `json:"processing_time_seconds"`
}

// Outcome pairs an upload of a batch with its result or error.
type Outcome struct {
	Upload Upload
	Result IngestResult
	Err    error
}

type Service struct {
	transcriber transcriber.Transcriber
	extraction  *extraction.Service
	records     *record.Service
	pool        *ants.Pool
}

// Ingest transcribes, extracts and stores one conversation.
func (s *Service) Ingest(ctx context.Context, upload Upload) (IngestResult, error) {
	if s.transcriber == nil {
		return IngestResult{}, errs.New(errs.CodeConfigOptionInvalid, "no transcriber configured")
	}

	if len(strings.TrimSpace(upload.Path)) == 0 {
		return IngestResult{}, errs.New(errs.CodeValidationInvalidInput, "upload path is required")
	}

	start := time.Now()

	transcription, err := s.transcriber.Transcribe(ctx, upload.Path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to transcribe audio", "filename", upload.Filename, "error", err)
		return IngestResult{}, errs.Wrap(err, errs.CodeTranscriptionUpstreamFailure, "failed to transcribe audio", errs.FieldFilename(upload.Filename))
	}

	text := strings.TrimSpace(transcription.Text)
	if len(text) == 0 {
		return IngestResult{}, errs.New(errs.CodeValidationInvalidInput, "no speech detected in audio", errs.FieldFilename(upload.Filename))
	}

	extracted, err := s.extraction.Extract(ctx, text)
	if err != nil {
		return IngestResult{}, err
	}

	extracted = extracted.Normalize()

	elapsed := round(time.Since(start).Seconds())

	id, err := s.records.Store(ctx, text, extracted, conversation.Metadata{
		Filename:              upload.Filename,
		Language:              transcription.Language,
		ProcessingTimeSeconds: elapsed,
	})
	if err != nil {
		return IngestResult{}, err
	}

	slog.InfoContext(ctx, "ingested conversation", "id", id, "filename", upload.Filename, "seconds", elapsed)

	return IngestResult{
		Id:                    id,
		Filename:              upload.Filename,
		Language:              transcription.Language,
		Transcription:         text,
		ExtractedData:         extracted,
		ProcessingTimeSeconds: elapsed,
	}, nil
}

// IngestAll ingests uploads on the worker pool. Outcomes keep the input order.
func (s *Service) IngestAll(ctx context.Context, uploads []Upload) []Outcome {
	outcomes := make([]Outcome, len(uploads))

	var wg sync.WaitGroup

	for i, upload := range uploads {
		outcomes[i].Upload = upload

		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			outcomes[i].Result, outcomes[i].Err = s.Ingest(ctx, upload)
		}); err != nil {
			wg.Done()
			outcomes[i].Err = errs.Wrap(err, errs.CodeInternalFailure, "failed to schedule ingestion", errs.FieldFilename(upload.Filename))
		}
	}

	wg.Wait()

	return outcomes
}

// Release stops the worker pool. The service must not be used afterwards.
func (s *Service) Release() {
	s.pool.Release()
}

func round(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}

func New(
	transcriber transcriber.Transcriber,
	extraction *extraction.Service,
	records *record.Service,
	workers int,
) (*Service, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigOptionInvalid, "failed to create ingestion pool")
	}

	return &Service{
		transcriber: transcriber,
		extraction:  extraction,
		records:     records,
		pool:        pool,
	}, nil
}
