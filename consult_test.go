package consult_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/consult"
	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/embedder/hashing"
	"github.com/w-h-a/consult/generator/mock"
	"github.com/w-h-a/consult/internal/service/answer"
	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/storer"
	"github.com/w-h-a/consult/storer/memory"
	"github.com/w-h-a/consult/storer/qdrant"
)

func TestNewRequiresDependencies(t *testing.T) {
	_, err := consult.New()
	require.Error(t, err)

	assert.True(t, errs.HasCode(err, errs.CodeConfigOptionInvalid))
}

func TestNewEnsuresCollection(t *testing.T) {
	s := memory.NewStorer()
	e, err := hashing.NewEmbedder()
	require.NoError(t, err)

	c, err := consult.New(consult.WithStorer(s), consult.WithEmbedder(e), consult.WithGenerator(mock.Reply("ok")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	names, err := s.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{consult.DefaultCollection}, names)
}

func TestNewSurvivesUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	location := srv.URL
	srv.Close()

	s, err := qdrant.NewStorer(storer.WithLocation(location), storer.WithTimeout(time.Second))
	require.NoError(t, err)

	e, err := hashing.NewEmbedder()
	require.NoError(t, err)

	gen := mock.Reply("unused")

	c, err := consult.New(consult.WithStorer(s), consult.WithEmbedder(e), consult.WithGenerator(gen))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	got, err := c.Answer(context.Background(), "What symptoms does Maria have?")
	require.NoError(t, err)

	assert.Equal(t, answer.NoContextAnswer, got.Answer)
	assert.Empty(t, got.RetrievedContext)
	assert.Equal(t, 0, gen.Calls())

	_, err = c.Store(context.Background(), "Maria has a headache", conversation.ExtractedData{}, conversation.Metadata{})
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))
}

func TestStoreThenAnswer(t *testing.T) {
	e, err := hashing.NewEmbedder()
	require.NoError(t, err)

	gen := mock.Reply("Maria has a headache.")

	c, err := consult.New(
		consult.WithStorer(memory.NewStorer()),
		consult.WithEmbedder(e),
		consult.WithGenerator(gen),
		consult.WithCollection("visits"),
		consult.WithTopK(2),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()

	_, err = c.Store(ctx, "Maria has a headache", conversation.ExtractedData{PatientName: conversation.String("Maria")}, conversation.Metadata{})
	require.NoError(t, err)

	hits := c.Retrieve(ctx, "Maria", 0)
	require.Len(t, hits, 1)

	got, err := c.Answer(ctx, "What symptoms does Maria have?")
	require.NoError(t, err)

	assert.Equal(t, "Maria has a headache.", got.Answer)
	assert.Len(t, got.RetrievedContext, 1)
	assert.Equal(t, 1, gen.Calls())
}

func TestIngestNeedsTranscriber(t *testing.T) {
	e, err := hashing.NewEmbedder()
	require.NoError(t, err)

	c, err := consult.New(consult.WithStorer(memory.NewStorer()), consult.WithEmbedder(e), consult.WithGenerator(mock.Reply("{}")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Ingest(context.Background(), consult.Upload{Path: "/tmp/a.wav", Filename: "a.wav"})
	require.Error(t, err)

	assert.True(t, errs.HasCode(err, errs.CodeConfigOptionInvalid))
}
