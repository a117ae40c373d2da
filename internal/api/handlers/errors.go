package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/chatserver/internal/chat"
	"github.com/nikhilbhutani/chatserver/internal/models"
	"github.com/nikhilbhutani/chatserver/internal/storage"
	"github.com/nikhilbhutani/chatserver/internal/user"
)

// writeError maps service errors to a status code. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fileErr *storage.ChatFileError
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, user.ErrEmailExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, chat.ErrInvalidChat),
		errors.Is(err, chat.ErrInvalidMessage),
		errors.As(err, &fileErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
