package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/consult/conversation"
	handler "github.com/w-h-a/consult/internal/handler/http"
	"github.com/w-h-a/consult/internal/service/ingest"
	errs "github.com/w-h-a/consult/pkg/errors"
)

type fakeService struct {
	answerFunc func(ctx context.Context, question string) (conversation.AnswerResult, error)
	ingestFunc func(ctx context.Context, upload ingest.Upload) (ingest.IngestResult, error)
	answers    int
	ingests    int
}

func (f *fakeService) Answer(ctx context.Context, question string) (conversation.AnswerResult, error) {
	f.answers++
	return f.answerFunc(ctx, question)
}

func (f *fakeService) Ingest(ctx context.Context, upload ingest.Upload) (ingest.IngestResult, error) {
	f.ingests++
	return f.ingestFunc(ctx, upload)
}

func newRouter(t *testing.T, svc handler.Service) (http.Handler, string) {
	t.Helper()

	dir := t.TempDir()

	h, err := handler.NewHandler(svc, dir, 1<<20)
	require.NoError(t, err)

	return h.Router(), dir
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func audioRequest(t *testing.T, filename string, contentType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("RIFF....WAVEfmt "))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t, &fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["message"])
}

func TestChat(t *testing.T) {
	svc := &fakeService{answerFunc: func(ctx context.Context, question string) (conversation.AnswerResult, error) {
		return conversation.AnswerResult{
			Question:         question,
			Answer:           "Maria has a headache.",
			RetrievedContext: []map[string]any{{"transcription": "Maria has a headache"}},
		}, nil
	}}
	router, _ := newRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"What symptoms does Maria have?"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"question": "What symptoms does Maria have?",
		"answer": "Maria has a headache.",
		"retrieved_context": [{"transcription": "Maria has a headache"}]
	}`, rec.Body.String())
}

func TestChatRejectsBadInput(t *testing.T) {
	for name, body := range map[string]string{
		"invalid json":   `{"question":`,
		"blank question": `{"question":"   "}`,
		"no question":    `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			router, _ := newRouter(t, svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["detail"])
			assert.Equal(t, 0, svc.answers)
		})
	}
}

func TestChatMapsErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{errs.New(errs.CodeStorageUnavailable, "vector store down"), http.StatusServiceUnavailable, "vector store down"},
		{
			errs.Wrap(errors.New(`qdrant http 400: {"status":{"error":"Wrong input"}}`), errs.CodeStorageUnavailable, "failed to store record"),
			http.StatusServiceUnavailable,
			"failed to store record",
		},
		{errors.New("secret stack detail"), http.StatusInternalServerError, "an internal error occurred while processing the request"},
	}

	for _, tt := range tests {
		svc := &fakeService{answerFunc: func(ctx context.Context, question string) (conversation.AnswerResult, error) {
			return conversation.AnswerResult{}, tt.err
		}}
		router, _ := newRouter(t, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"q"}`)))

		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.detail, decode(t, rec)["detail"])
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	router, _ := newRouter(t, &fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTranscribe(t *testing.T) {
	var savedPath string

	svc := &fakeService{ingestFunc: func(ctx context.Context, upload ingest.Upload) (ingest.IngestResult, error) {
		savedPath = upload.Path

		_, err := os.Stat(upload.Path)
		require.NoError(t, err)

		return ingest.IngestResult{
			Id:                    "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			Filename:              upload.Filename,
			Language:              "pt",
			Transcription:         "Maria has a headache",
			ExtractedData:         conversation.ExtractedData{PatientName: conversation.String("Maria")}.Normalize(),
			ProcessingTimeSeconds: 1.25,
		}, nil
	}}
	router, dir := newRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, audioRequest(t, "visit.wav", "audio/wav"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "visit.wav", body["filename"])
	assert.Equal(t, "pt", body["language"])
	assert.Equal(t, "Maria has a headache", body["transcription"])
	assert.Equal(t, 1.25, body["processing_time_seconds"])
	assert.Equal(t, "Maria", body["extracted_data"].(map[string]any)["patient_name"])

	assert.Equal(t, dir, filepath.Dir(savedPath))
	assert.Equal(t, ".wav", filepath.Ext(savedPath))
	assert.NotEqual(t, "visit.wav", filepath.Base(savedPath))

	_, err := os.Stat(savedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestTranscribeRejectsNonAudio(t *testing.T) {
	svc := &fakeService{}
	router, dir := newRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, audioRequest(t, "notes.txt", "text/plain"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, svc.ingests)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTranscribeRequiresFile(t *testing.T) {
	svc := &fakeService{}
	router, _ := newRouter(t, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, svc.ingests)
}

func TestTranscribeFailureRemovesUpload(t *testing.T) {
	svc := &fakeService{ingestFunc: func(ctx context.Context, upload ingest.Upload) (ingest.IngestResult, error) {
		return ingest.IngestResult{}, errs.New(errs.CodeTranscriptionUpstreamFailure, "transcription model is not available")
	}}
	router, dir := newRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, audioRequest(t, "visit.mp3", "audio/mpeg"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "transcription model is not available", decode(t, rec)["detail"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
