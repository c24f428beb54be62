package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/w-h-a/consult/conversation"
	"github.com/w-h-a/consult/internal/service/ingest"
	errs "github.com/w-h-a/consult/pkg/errors"
)

const (
	healthMessage = "Consultation transcription and RAG service is running."

	defaultMaxUploadBytes = 64 << 20
)

type Service interface {
	Answer(ctx context.Context, question string) (conversation.AnswerResult, error)
	Ingest(ctx context.Context, upload ingest.Upload) (ingest.IngestResult, error)
}

type Handler struct {
	service        Service
	uploadDir      string
	maxUploadBytes int64
}

type chatRequest struct {
	Question string `json:"question"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": healthMessage,
	})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(ctx, w, errs.Wrap(err, errs.CodeValidationInvalidInput, "request body must be a JSON object with a question"))
		return
	}

	if len(strings.TrimSpace(req.Question)) == 0 {
		writeError(ctx, w, errs.New(errs.CodeValidationInvalidInput, "question must not be empty"))
		return
	}

	slog.InfoContext(ctx, "received chat question", "length", len(req.Question))

	rsp, err := h.service.Answer(ctx, req.Question)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(ctx, w, errs.Wrap(err, errs.CodeValidationInvalidInput, "request must be a multipart form with an audio file"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, errs.Wrap(err, errs.CodeValidationInvalidInput, "form field 'file' is required"))
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "audio/") {
		writeError(ctx, w, errs.New(errs.CodeValidationInvalidInput, "invalid file format, expected an audio file", errs.FieldFilename(header.Filename)))
		return
	}

	path := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(header.Filename))

	if err := save(path, file); err != nil {
		slog.ErrorContext(ctx, "failed to save upload", "path", path, "error", err)
		writeError(ctx, w, errs.Wrap(err, errs.CodeInternalFailure, "failed to save upload"))
		return
	}

	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "failed to remove upload", "path", path, "error", err)
		}
	}()

	rsp, err := h.service.Ingest(ctx, ingest.Upload{Path: path, Filename: header.Filename})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, rsp)
}

func save(path string, src io.Reader) error {
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}

	return dst.Close()
}

// Router mounts the API on a gorilla/mux router.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	api.HandleFunc("/transcribe", h.Transcribe).Methods(http.MethodPost)

	return r
}

func NewHandler(service Service, uploadDir string, maxUploadBytes int64) (*Handler, error) {
	if len(uploadDir) == 0 {
		uploadDir = os.TempDir()
	}

	if err := os.MkdirAll(uploadDir, 0o700); err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigOptionInvalid, "failed to prepare upload directory")
	}

	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return &Handler{
		service:        service,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
	}, nil
}
