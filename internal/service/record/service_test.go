package record_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/embedder"
	"github.com/w-h-a/consult/embedder/hashing"
	"github.com/w-h-a/consult/internal/service/record"
	errs "github.com/w-h-a/consult/pkg/errors"
	"github.com/w-h-a/consult/storer"
	"github.com/w-h-a/consult/storer/memory"
	"github.com/w-h-a/consult/storer/qdrant"
)

const collectionName = "patient_conversations"

type shortEmbedder struct {
	dimension int
	calls     int
}

func (e *shortEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return make([]float32, e.dimension-1), nil
}

func (e *shortEmbedder) Dimension() int {
	return e.dimension
}

type failingStorer struct {
	storer.Storer
	err error
}

func (f *failingStorer) Upsert(ctx context.Context, collection string, points []storer.Point, wait bool) error {
	return f.err
}

func setup(t *testing.T, dim int) (storer.Storer, embedder.Embedder) {
	t.Helper()

	s := memory.NewStorer()
	require.NoError(t, s.CreateCollection(context.Background(), storer.Collection{Name: collectionName, Dimension: dim, Distance: storer.Cosine}))

	e, err := hashing.NewEmbedder(embedder.WithDimension(dim))
	require.NoError(t, err)

	return s, e
}

func TestStoreWritesPayload(t *testing.T) {
	ctx := context.Background()
	s, e := setup(t, 64)
	svc := record.New(s, e, collectionName)

	id, err := svc.Store(ctx, "Maria reports a headache", conversation.ExtractedData{
		PatientName: conversation.String("Maria"),
		Symptoms:    []string{"headache"},
	}, conversation.Metadata{Filename: "maria.wav", Language: "en", ProcessingTimeSeconds: 2})
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	require.NoError(t, err)

	vec, err := e.Embed(ctx, "Maria reports a headache")
	require.NoError(t, err)

	got, err := s.Search(ctx, collectionName, vec, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, id, got[0].Id)
	assert.Equal(t, "Maria reports a headache", got[0].Payload["transcription"])

	extracted := got[0].Payload["extracted_data"].(map[string]any)
	assert.Equal(t, "Maria", extracted["patient_name"])
	assert.Equal(t, []any{"headache"}, extracted["symptoms"])

	meta := got[0].Payload["processing_metadata"].(map[string]any)
	assert.Equal(t, "maria.wav", meta["filename"])
}

func TestStoreGeneratesDistinctIds(t *testing.T) {
	s, e := setup(t, 16)
	svc := record.New(s, e, collectionName)

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id, err := svc.Store(context.Background(), "same text every time", conversation.ExtractedData{}, conversation.Metadata{})
		require.NoError(t, err)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, 1000)
}

func TestStoreRejectsBlankTranscription(t *testing.T) {
	s, _ := setup(t, 8)
	e := &shortEmbedder{dimension: 8}
	svc := record.New(s, e, collectionName)

	_, err := svc.Store(context.Background(), "  \n\t", conversation.ExtractedData{}, conversation.Metadata{})
	require.Error(t, err)

	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, 0, e.calls)
}

func TestStoreRejectsEmbeddingOfWrongLength(t *testing.T) {
	s, _ := setup(t, 8)
	svc := record.New(s, &shortEmbedder{dimension: 8}, collectionName)

	_, err := svc.Store(context.Background(), "hello", conversation.ExtractedData{}, conversation.Metadata{})
	require.Error(t, err)

	assert.True(t, errs.HasCode(err, errs.CodeStorageDimensionMismatch))
	assert.True(t, errs.IsStorage(err))
}

func TestStoreRejectsCollectionOfOtherDimension(t *testing.T) {
	s, _ := setup(t, 8)

	e, err := hashing.NewEmbedder(embedder.WithDimension(16))
	require.NoError(t, err)

	svc := record.New(s, e, collectionName)

	id, err := svc.Store(context.Background(), "hello", conversation.ExtractedData{}, conversation.Metadata{})
	require.Error(t, err)

	assert.Empty(t, id)
	assert.True(t, errs.HasCode(err, errs.CodeStorageDimensionMismatch))
}

func TestStoreBackendUnavailable(t *testing.T) {
	s, e := setup(t, 8)
	svc := record.New(&failingStorer{Storer: s, err: errors.New("connection refused")}, e, collectionName)

	id, err := svc.Store(context.Background(), "hello", conversation.ExtractedData{}, conversation.Metadata{})
	require.Error(t, err)

	assert.Empty(t, id)
	assert.True(t, errs.HasCode(err, errs.CodeStorageUnavailable))
	assert.True(t, errs.IsRetryable(err))
}

// driftedQdrant describes patient_conversations as 768-dimensional and rejects
// any other vector length the way Qdrant does.
func driftedQdrant(t *testing.T) (string, *atomic.Int32) {
	t.Helper()

	var puts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/"+collectionName:
			_, _ = w.Write([]byte(`{"status":"ok","result":{"config":{"params":{"vectors":{"size":768,"distance":"Cosine"}}}}}`))
		case r.Method == http.MethodPut:
			puts.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":{"error":"Wrong input: Vector dimension error: expected dim: 768, got 384"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return srv.URL, &puts
}

func TestStoreFlagsDimensionDriftOnQdrant(t *testing.T) {
	location, puts := driftedQdrant(t)

	s, err := qdrant.NewStorer(storer.WithLocation(location))
	require.NoError(t, err)

	e, err := hashing.NewEmbedder()
	require.NoError(t, err)

	_, err = record.New(s, e, collectionName).Store(context.Background(), "Maria has a headache", conversation.ExtractedData{}, conversation.Metadata{})
	require.Error(t, err)

	assert.Equal(t, errs.CodeStorageDimensionMismatch, errs.CodeOf(err))
	assert.False(t, errs.IsRetryable(err))
	assert.Zero(t, puts.Load())
}
