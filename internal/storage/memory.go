package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// MemoryStorage keeps objects in process memory. It backs the CLI when no
// bucket is configured and stands in for S3 in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	prefix  string
}

// NewMemoryStorage creates an empty in-memory store. URLs are prefix/key.
func NewMemoryStorage(prefix string) *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte), prefix: prefix}
}

// Upload stores the object body.
func (m *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = body
	m.mu.Unlock()
	return nil
}

// Download returns the object body.
func (m *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	body, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// GetURL returns prefix/key.
func (m *MemoryStorage) GetURL(key string) string {
	return m.prefix + "/" + key
}

// Exists reports whether key was uploaded.
func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// Keys returns the stored object keys.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
