package extraction

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/generator"
	errs "github.com/w-h-a/consult/pkg/errors"
)

const (
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond
	DefaultTimeout    = 60 * time.Second
)

type Service struct {
	generator  generator.Generator
	maxRetries uint64
	backoff    time.Duration
	timeout    time.Duration
}

// Extract asks the generator for the structured fields of a transcription.
// Upstream and malformed-reply failures are retried, then surfaced as typed errors.
func (s *Service) Extract(ctx context.Context, transcription string) (conversation.ExtractedData, error) {
	prompt := BuildPrompt(transcription)

	var data conversation.ExtractedData
	attempt := 0

	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		reply, err := s.generator.Generate(attemptCtx, prompt, generator.WithResponseSchema(ConversationSchema))
		if err != nil {
			slog.WarnContext(ctx, "extraction request failed", "attempt", attempt, "error", err)
			return retry.RetryableError(errs.Wrap(err, errs.CodeExtractionUpstreamFailure, "extraction backend failed"))
		}

		parsed, err := Parse(ctx, reply)
		if err != nil {
			slog.WarnContext(ctx, "extraction reply rejected", "attempt", attempt, "error", err)
			return retry.RetryableError(errs.Wrap(err, errs.CodeExtractionResponseInvalid, "extraction reply was not in the expected format"))
		}

		data = parsed

		return nil
	})
	if err != nil {
		if errs.CodeOf(err) == "" {
			err = errs.Wrap(err, errs.CodeExtractionUpstreamFailure, "extraction aborted")
		}
		slog.ErrorContext(ctx, "failed to extract conversation data", "attempts", attempt, "error", err)
		return conversation.ExtractedData{}, err
	}

	return data, nil
}

func BuildPrompt(transcription string) string {
	var sb bytes.Buffer

	sb.WriteString("Analyse the following transcription of a conversation between a health promoter and a patient.\n")
	sb.WriteString("Extract the key information and return it strictly as JSON.\n")
	sb.WriteString("\nTranscription:\n---\n")
	sb.WriteString(transcription)
	sb.WriteString("\n---\n")
	sb.WriteString("\nExtract the following information:\n")
	sb.WriteString("- Patient name.\n")
	sb.WriteString("- Patient age.\n")
	sb.WriteString("- Consultation date (YYYY-MM-DD).\n")
	sb.WriteString("- A list of every symptom described.\n")
	sb.WriteString("- Any preliminary diagnosis mentioned.\n")
	sb.WriteString("- A summary of observations or other important context.\n")
	sb.WriteString("\nIf some information is not present, use null.\n")

	return sb.String()
}

func New(
	generator generator.Generator,
	maxRetries int,
	backoff time.Duration,
	timeout time.Duration,
) *Service {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		generator:  generator,
		maxRetries: uint64(maxRetries),
		backoff:    backoff,
		timeout:    timeout,
	}
}
