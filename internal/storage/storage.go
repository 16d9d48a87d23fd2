// Package storage persists snapshot backups to S3-compatible object storage.
package storage

import (
	"context"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service stores and enumerates backup documents. Implementations are
// configured with a bucket; keys passed in are bucket-relative.
type Service interface {
	PutObject(ctx context.Context, key string, payload []byte) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, prefix string) error
}
