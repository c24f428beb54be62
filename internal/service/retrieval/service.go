package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/embedder"
	"github.com/w-h-a/consult/storer"
)

const DefaultTopK = 3

type Service struct {
	storer      storer.Storer
	embedder    embedder.Embedder
	collection  string
	defaultTopK int
}

// Retrieve returns up to topK stored records most similar to query, best first.
// Any failure is logged and yields an empty result.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) []conversation.Hit {
	if topK <= 0 {
		topK = s.defaultTopK
	}

	if len(strings.TrimSpace(query)) == 0 {
		slog.WarnContext(ctx, "retrieval skipped for empty query")
		return []conversation.Hit{}
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "failed to embed query", "error", err)
		return []conversation.Hit{}
	}

	records, err := s.storer.Search(ctx, s.collection, vector, topK)
	if err != nil {
		slog.ErrorContext(ctx, "failed to search collection", "collection", s.collection, "error", err)
		return []conversation.Hit{}
	}

	hits := make([]conversation.Hit, 0, len(records))
	for _, rec := range records {
		payload := rec.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		hits = append(hits, conversation.Hit{
			Id:      rec.Id,
			Score:   rec.Score,
			Payload: payload,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	slog.DebugContext(ctx, "retrieved context", "collection", s.collection, "hits", len(hits))

	return hits
}

func New(
	storer storer.Storer,
	embedder embedder.Embedder,
	collection string,
	defaultTopK int,
) *Service {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}

	return &Service{
		storer:      storer,
		embedder:    embedder,
		collection:  collection,
		defaultTopK: defaultTopK,
	}
}
