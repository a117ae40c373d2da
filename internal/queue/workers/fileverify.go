package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/chatserver/internal/metrics"
	"github.com/nikhilbhutani/chatserver/internal/queue"
	"github.com/nikhilbhutani/chatserver/internal/storage"
)

// FileVerifyWorker re-hashes stored attachments and removes any blob whose
// content no longer matches its address.
type FileVerifyWorker struct {
	store *storage.FileStore
}

func NewFileVerifyWorker(store *storage.FileStore) *FileVerifyWorker {
	return &FileVerifyWorker{store: store}
}

func (w *FileVerifyWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.FileVerifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	f := payload.ChatFile()
	if err := f.Validate(); err != nil {
		metrics.FileVerifications.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	ok, err := w.store.Verify(ctx, f)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.FileVerifications.WithLabelValues("missing").Inc()
		slog.WarnContext(ctx, "file to verify is missing", "url", f.URL())
		return nil
	}
	if err != nil {
		return fmt.Errorf("verify %s: %w", f.URL(), err)
	}

	if ok {
		metrics.FileVerifications.WithLabelValues("ok").Inc()
		return nil
	}

	metrics.FileVerifications.WithLabelValues("corrupt").Inc()
	slog.ErrorContext(ctx, "stored file does not match its hash, removing", "url", f.URL())
	if err := w.store.Remove(ctx, f); err != nil {
		return fmt.Errorf("remove corrupt %s: %w", f.URL(), err)
	}
	return nil
}
