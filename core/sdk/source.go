package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"

	"service-map/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrEmptyScript is returned when the SDK resource resolves to no bytes.
var ErrEmptyScript = errors.New("SDK script is empty")

// StorageScriptSource fetches SDK scripts from object storage.
type StorageScriptSource struct {
	client storage.Client
	bucket string
}

// NewStorageScriptSource creates a script source reading from bucket.
func NewStorageScriptSource(client storage.Client, bucket string) *StorageScriptSource {
	return &StorageScriptSource{client: client, bucket: bucket}
}

// Fetch downloads the object named by locator.
func (s *StorageScriptSource) Fetch(ctx context.Context, locator string) ([]byte, error) {
	reader, err := s.client.GetObject(ctx, s.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get SDK object %s: %w", locator, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read SDK object %s: %w", locator, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", locator, ErrEmptyScript)
	}
	return data, nil
}

// StaticScriptSource serves a fixed script, for embedded or headless runtimes.
type StaticScriptSource []byte

// Fetch returns the fixed script.
func (s StaticScriptSource) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%s: %w", locator, ErrEmptyScript)
	}
	return []byte(s), nil
}
