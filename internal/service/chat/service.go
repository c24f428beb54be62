package chat

import (
	"context"
	"strings"

	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/internal/service/answer"
	"github.com/w-h-a/consult/internal/service/retrieval"
	errs "github.com/w-h-a/consult/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/w-h-a/consult/internal/service/chat")

type Service struct {
	retrieval *retrieval.Service
	answer    *answer.Service
	topK      int
}

// Answer runs retrieval then synthesis. Only a blank question is an error;
// backend failures degrade into the fixed fallback answers.
func (s *Service) Answer(ctx context.Context, query string) (conversation.AnswerResult, error) {
	if len(strings.TrimSpace(query)) == 0 {
		return conversation.AnswerResult{}, errs.New(errs.CodeValidationInvalidInput, "question must not be empty")
	}

	retrieveCtx, span := tracer.Start(ctx, "chat.retrieve")
	hits := s.retrieval.Retrieve(retrieveCtx, query, s.topK)
	span.SetAttributes(attribute.Int("chat.hits", len(hits)))
	span.End()

	synthCtx, span := tracer.Start(ctx, "chat.synthesize")
	result := s.answer.Synthesize(synthCtx, query, hits)
	span.End()

	return conversation.AnswerResult{
		Question:         query,
		Answer:           result,
		RetrievedContext: conversation.Contexts(hits),
	}, nil
}

func New(
	retriever *retrieval.Service,
	synthesizer *answer.Service,
	topK int,
) *Service {
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	return &Service{
		retrieval: retriever,
		answer:    synthesizer,
		topK:      topK,
	}
}
