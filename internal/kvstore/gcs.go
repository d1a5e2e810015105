// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore keeps each namespace as the object <prefix><namespace>.json in a
// Cloud Storage bucket. Credentials come from the ambient Application
// Default Credentials.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a Cloud Storage client for bucket.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs store requires a bucket")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) objectName(ns string) string {
	return s.prefix + ns + ".json"
}

// Read downloads the namespace object. A missing object is ok=false.
func (s *GCSStore) Read(ctx context.Context, ns string) ([]byte, bool, error) {
	if err := validNamespace(ns); err != nil {
		return nil, false, err
	}
	reader, err := s.client.Bucket(s.bucket).Object(s.objectName(ns)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, fmt.Errorf("reading object data: %w", err)
	}
	return data, true, nil
}

// Write uploads data as the namespace object.
func (s *GCSStore) Write(ctx context.Context, ns string, data []byte) error {
	if err := validNamespace(ns); err != nil {
		return err
	}
	writer := s.client.Bucket(s.bucket).Object(s.objectName(ns)).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
