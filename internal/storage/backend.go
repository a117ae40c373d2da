package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nikhilbhutani/chatserver/internal/config"
)

var ErrNotFound = errors.New("blob not found")

// Backend persists blobs under slash-separated keys.
type Backend interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Put writes data at key, creating any intermediate directories.
	Put(ctx context.Context, key string, data []byte) error
	// Open returns ErrNotFound when nothing is stored at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewBackend builds the backend named by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalBackend(cfg.BaseDir), nil
	case "s3":
		return NewS3Backend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
