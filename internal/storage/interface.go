package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ObjectStorage defines the interface for object storage operations
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// PutJSON encodes v and uploads it under key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - store: destination storage.
//   - key: object key.
//   - v: value to encode.
// Returns:
//   - error: non-nil if encoding or upload fails.
func PutJSON(ctx context.Context, store ObjectStorage, key string, v interface{}) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json")
}

// GetJSON downloads key and decodes it into out.
func GetJSON(ctx context.Context, store ObjectStorage, key string, out interface{}) error {
	rc, err := store.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
