package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/chainproof-io/chainproof/internal/models"
)

// GCSEvent is the storage-event payload for a finalized upload in the
// staging bucket.
type GCSEvent struct {
	Bucket      string            `json:"bucket"`
	Name        string            `json:"name"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata"`
}

// Intake bridges staged browser uploads into the protection pipeline. The
// SPA uploads to the staging bucket under <subjectId>/<uploadId>/<filename>
// with the protection options attached as custom object metadata; the
// finalize event lands here.
type Intake struct {
	storageClient *storage.Client
	protector     *Protector
}

func NewIntake(storageClient *storage.Client, protector *Protector) (*Intake, error) {
	if storageClient == nil || protector == nil {
		return nil, fmt.Errorf("storage client and protector are required")
	}
	return &Intake{storageClient: storageClient, protector: protector}, nil
}

// NewIntakeFromEnv wires the intake for a function deployment.
func NewIntakeFromEnv(ctx context.Context) (*Intake, error) {
	protector, err := NewProtectorFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return NewIntake(storageClient, protector)
}

// Process runs the protection pipeline for one staged upload. The staged
// object's first path segment is the uploading subject (the staging bucket's
// upload rules enforce that prefix), so an object outside that layout fails
// closed.
func (f *Intake) Process(ctx context.Context, e GCSEvent) (*models.ProtectionResult, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing staged upload.")

	segments := strings.Split(e.Name, "/")
	if len(segments) < 2 || segments[0] == "" {
		logCtx.Error("Staged object has no subject prefix. Rejecting.")
		return nil, fmt.Errorf("staged object %q has no subject prefix: %w", e.Name, models.ErrUnauthenticated)
	}
	subjectID := segments[0]
	filename := segments[len(segments)-1]

	reader, err := f.storageClient.Bucket(e.Bucket).Object(e.Name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", e.Bucket, e.Name, err)
	}
	defer reader.Close()

	meta := models.UploadMetadata{
		Filename:    filename,
		ContentType: e.ContentType,
		Title:       e.Metadata["title"],
	}
	opts := models.ProtectOptions{
		EnableDistributedStorage: e.Metadata["protect-distributed"] == "true",
		EnableLedger:             e.Metadata["protect-ledger"] == "true",
	}

	result, err := f.protector.Protect(WithSubject(ctx, subjectID), reader, meta, opts)
	if err != nil {
		logCtx.Error("Protection pipeline failed for staged upload.", "error", err)
		return nil, err
	}
	return result, nil
}

// ProtectBytes is the direct, non-event entry into the pipeline for callers
// that already hold the file contents.
func (f *Intake) ProtectBytes(ctx context.Context, data []byte, meta models.UploadMetadata, opts models.ProtectOptions) (*models.ProtectionResult, error) {
	return f.protector.Protect(ctx, bytes.NewReader(data), meta, opts)
}
