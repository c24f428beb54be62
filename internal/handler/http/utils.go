package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	errs "github.com/w-h-a/consult/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)

	detail := errs.Message(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "code", errs.CodeOf(err), "error", err)
		detail = "an internal error occurred while processing the request"
	} else {
		slog.WarnContext(ctx, "request rejected", "status", status, "code", errs.CodeOf(err), "error", err)
	}

	writeJSON(w, status, map[string]string{"detail": detail})
}
