package storage

import (
	"context"
	"testing"

	"github.com/timmy/artmatch/internal/config"
)

func TestDetectStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"https://abc.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.eu-west-1.amazonaws.com", StorageTypeS3},
		{"", StorageTypeS3},
		{"http://localhost:9000", StorageTypeS3Compatible},
	}
	for _, tt := range tests {
		if got := detectStorageType(tt.endpoint); got != tt.want {
			t.Errorf("detectStorageType(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	if got := normalizeEndpoint("https://minio.local:9000/some/path"); got != "minio.local:9000" {
		t.Errorf("normalizeEndpoint() = %q", got)
	}
}

func TestNewStorageMemory(t *testing.T) {
	store, err := NewStorage(context.Background(), &config.StorageConfig{Type: "memory", Bucket: "artmatch"})
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if _, ok := store.(*MemoryStorage); !ok {
		t.Fatalf("NewStorage() = %T, want *MemoryStorage", store)
	}
	if got := store.GetURL("reports/r1.json"); got != "mem://artmatch/reports/r1.json" {
		t.Errorf("GetURL() = %q", got)
	}
}

func TestJSONRoundTripThroughMemoryStorage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage("mem://reports")

	in := map[string]interface{}{"run_id": "r1", "score": 0.5}
	if err := PutJSON(ctx, store, "reports/r1.json", in); err != nil {
		t.Fatalf("PutJSON() error = %v", err)
	}
	ok, err := store.Exists(ctx, "reports/r1.json")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}

	var out map[string]interface{}
	if err := GetJSON(ctx, store, "reports/r1.json", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out["run_id"] != "r1" {
		t.Errorf("decoded = %v", out)
	}
	if store.GetURL("reports/r1.json") != "mem://reports/reports/r1.json" {
		t.Errorf("GetURL() = %q", store.GetURL("reports/r1.json"))
	}
	if err := GetJSON(ctx, store, "missing", &out); err == nil {
		t.Error("expected error for missing key")
	}
}
