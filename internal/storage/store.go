package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nikhilbhutani/chatserver/internal/metrics"
)

// FileStore is the content-addressed attachment store.
type FileStore struct {
	backend Backend
}

func NewFileStore(b Backend) *FileStore {
	return &FileStore{backend: b}
}

// Save addresses data and writes it unless a blob already exists at that
// address. The check and the write are two steps with no lock between them:
// concurrent uploads of the same bytes may both write, which is harmless
// because they write identical content. written reports whether this call
// wrote.
func (s *FileStore) Save(ctx context.Context, wsID int64, filename string, data []byte) (ChatFile, bool, error) {
	f := NewChatFile(wsID, filename, data)
	key := f.PathSegments()

	exists, err := s.backend.Exists(ctx, key)
	if err != nil {
		metrics.FileUploads.WithLabelValues("failed").Inc()
		return f, false, fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		metrics.FileUploads.WithLabelValues("deduplicated").Inc()
		slog.InfoContext(ctx, "file already exists", "path", key)
		return f, false, nil
	}

	if err := s.backend.Put(ctx, key, data); err != nil {
		metrics.FileUploads.WithLabelValues("failed").Inc()
		return f, false, err
	}
	metrics.FileUploads.WithLabelValues("stored").Inc()
	metrics.FileUploadBytes.Add(float64(len(data)))
	return f, true, nil
}

func (s *FileStore) Exists(ctx context.Context, f ChatFile) (bool, error) {
	return s.backend.Exists(ctx, f.PathSegments())
}

func (s *FileStore) Open(ctx context.Context, f ChatFile) (io.ReadCloser, error) {
	return s.backend.Open(ctx, f.PathSegments())
}

func (s *FileStore) Remove(ctx context.Context, f ChatFile) error {
	return s.backend.Delete(ctx, f.PathSegments())
}

// Verify re-hashes the stored blob and reports whether it still matches its
// address. A missing blob returns ErrNotFound.
func (s *FileStore) Verify(ctx context.Context, f ChatFile) (bool, error) {
	rc, err := s.Open(ctx, f)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", f.PathSegments(), err)
	}
	return HashContent(data) == f.Hash, nil
}
