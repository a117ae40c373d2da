package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/storage"
)

type FileStore interface {
	Save(ctx context.Context, wsID int64, filename string, data []byte) (storage.ChatFile, bool, error)
	Open(ctx context.Context, f storage.ChatFile) (io.ReadCloser, error)
}

// VerifyScheduler queues a background integrity check for a new blob.
type VerifyScheduler interface {
	EnqueueFileVerify(ctx context.Context, f storage.ChatFile) error
}

type FileHandler struct {
	store    FileStore
	verify   VerifyScheduler
	maxBytes int64
}

// NewFileHandler builds the upload and download handlers. verify may be nil.
func NewFileHandler(store FileStore, verify VerifyScheduler, maxBytes int64) *FileHandler {
	return &FileHandler{store: store, verify: verify, maxBytes: maxBytes}
}

// Upload stores every file part of a multipart body in the caller's
// workspace and returns their URLs in request order.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	me := auth.IdentityFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	urls := []string{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeUploadError(w, err)
			return
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			writeUploadError(w, err)
			return
		}

		f, written, err := h.store.Save(r.Context(), me.WorkspaceID, part.FileName(), data)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if written && h.verify != nil {
			if err := h.verify.EnqueueFileVerify(r.Context(), f); err != nil {
				slog.WarnContext(r.Context(), "schedule file verification failed", "url", f.URL(), "error", err)
			}
		}
		urls = append(urls, f.URL())
	}

	if len(urls) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no files in request"})
		return
	}
	writeJSON(w, http.StatusOK, urls)
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
}

// Download serves a blob by its URL. Files of other workspaces are reported
// as missing.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	me := auth.IdentityFromContext(r.Context())

	f, err := storage.ParseURL(storage.URLPrefix + chi.URLParam(r, "*"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if f.WorkspaceID != me.WorkspaceID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	rc, err := h.store.Open(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension("." + f.Ext)
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.WarnContext(r.Context(), "stream file failed", "url", f.URL(), "error", err)
	}
}
