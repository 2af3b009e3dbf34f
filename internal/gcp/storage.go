package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
// It's shared by every service's config loader.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ObjectStore is the primary blob store for uploaded assets and rendered
// certificate artifacts, backed by one GCS bucket.
type ObjectStore struct {
	client *storage.Client
	bucket string
}

func NewObjectStore(client *storage.Client, bucket string) (*ObjectStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name must be provided to create an object store")
	}
	return &ObjectStore{client: client, bucket: bucket}, nil
}

// Put writes data under key, retrying transient failures with exponential
// backoff. The write is conditional on the object not existing: keys carry a
// timestamp component, so a precondition failure means an earlier attempt
// already landed and the write is treated as committed.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	const maxRetries = 4
	var backoff = 1 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := func() error {
			writeCtx, cancel := context.WithTimeout(ctx, time.Second*50)
			defer cancel()

			w := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(writeCtx)
			w.ContentType = contentType

			if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
				_ = w.Close()
				return fmt.Errorf("io.Copy to GCS failed: %w", err)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to finalize GCS write: %w", err)
			}
			return nil
		}()

		if err == nil {
			return key, nil
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			slog.Info("Object already exists, treating write as committed.", "gcsObject", key)
			return key, nil
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", key,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", key, "error", ctx.Err())
			return "", ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", key, "error", lastErr)
	return "", fmt.Errorf("upload for %s failed after all retries: %w", key, lastErr)
}

// Get reads an object's contents into memory.
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", s.bucket, key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// PublicURL returns the public download URL for a stored object.
func (s *ObjectStore) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, url.PathEscape(key))
}
