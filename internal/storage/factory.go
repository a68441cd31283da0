package storage

import (
	"context"
	"strings"

	"github.com/timmy/artmatch/internal/config"
)

// StorageTypeMemory keeps reports in process memory, for local runs.
const StorageTypeMemory StorageType = "memory"

// NewStorage creates the report store described by cfg and makes sure an
// S3 bucket exists.
// Parameters:
//   - ctx: context for the bucket check.
//   - cfg: storage configuration including endpoint, credentials and bucket.
// Returns:
//   - ObjectStorage: initialized storage implementation.
//   - error: non-nil if the client cannot be created or the bucket is missing.
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (ObjectStorage, error) {
	storeType := StorageType(strings.ToLower(cfg.Type))
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}
	if storeType == StorageTypeMemory {
		return NewMemoryStorage("mem://" + cfg.Bucket), nil
	}

	s3, err := NewS3Storage(ctx, &S3Config{
		Type:      storeType,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}

// detectStorageType guesses the flavour from the endpoint host.
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case endpoint == "", strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
