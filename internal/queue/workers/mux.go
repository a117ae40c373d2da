package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/chatserver/internal/queue"
	"github.com/nikhilbhutani/chatserver/internal/storage"
)

// NewMux routes every task type the worker binary serves.
func NewMux(store *storage.FileStore) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(logTasks)

	verify := NewFileVerifyWorker(store)
	mux.HandleFunc(queue.TypeFileVerify, verify.ProcessTask)
	return mux
}

func logTasks(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "task failed", "type", t.Type(), "duration", time.Since(start), "error", err)
			return err
		}
		slog.InfoContext(ctx, "task done", "type", t.Type(), "duration", time.Since(start))
		return nil
	})
}
