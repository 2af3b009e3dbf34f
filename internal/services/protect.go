// Package services implements the ChainProof protection core: the staged
// protection pipeline, certificate issuance/verification and the revocation
// flow. All collaborators come in through the constructors so the functions
// surface and the tests wire them differently.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chainproof-io/chainproof/internal/catalog"
	"github.com/chainproof-io/chainproof/internal/hashing"
	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/chainproof-io/chainproof/internal/storagekey"
)

// Score contributions per pipeline stage. The primary store always succeeds
// or the asset does not exist, so its share is the floor.
const (
	scoreBase        = 50
	scoreDistributed = 25
	scoreLedger      = 25
)

// DefaultMaxUploadBytes is the upload ceiling applied when none is
// configured.
const DefaultMaxUploadBytes = 100 << 20 // 100 MB

// DefaultAllowedContentTypes is the upload MIME allow-list applied when none
// is configured.
var DefaultAllowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"audio/mpeg",
	"video/mp4",
	"text/plain",
}

// ProtectorConfig holds the validation limits for the protection pipeline.
type ProtectorConfig struct {
	MaxUploadBytes      int64
	AllowedContentTypes []string
}

// Protector runs the protection pipeline: hash, primary store, optional
// distributed publish, optional ledger anchor, then exactly one persisted
// asset record.
type Protector struct {
	catalog     catalog.Catalog
	objects     ObjectStore
	distributed DistributedStorage
	ledger      Ledger
	subjects    SubjectProvider
	workflow    WorkflowTrigger
	config      ProtectorConfig
}

// NewProtector wires a Protector from its collaborators. distributed, ledger
// and workflow may be nil when the deployment does not provide them; the
// corresponding stages are then skipped regardless of request options.
func NewProtector(cfg ProtectorConfig, cat catalog.Catalog, objects ObjectStore, distributed DistributedStorage, ledger Ledger, subjects SubjectProvider, workflow WorkflowTrigger) (*Protector, error) {
	if cat == nil || objects == nil || subjects == nil {
		return nil, fmt.Errorf("catalog, object store and subject provider are required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = DefaultAllowedContentTypes
	}
	return &Protector{
		catalog:     cat,
		objects:     objects,
		distributed: distributed,
		ledger:      ledger,
		subjects:    subjects,
		workflow:    workflow,
		config:      cfg,
	}, nil
}

// optionalStage describes one skippable pipeline stage. The enabled check
// runs at execution time because the anchor stage depends on the publish
// stage's outcome.
type optionalStage struct {
	name    string
	bonus   int
	enabled func() bool
	run     func(ctx context.Context) error
}

// Protect runs the full pipeline for one upload. Mandatory-stage failures
// (validation, hashing, primary store) abort with no record written;
// optional-stage failures degrade the protection score and nothing else.
func (p *Protector) Protect(ctx context.Context, file io.Reader, meta models.UploadMetadata, opts models.ProtectOptions) (*models.ProtectionResult, error) {
	subject, err := p.subjects.CurrentSubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	logCtx := slog.With("ownerId", subject.ID, "filename", meta.Filename)
	logCtx.Info("Starting protection pipeline.",
		"distributedEnabled", opts.EnableDistributedStorage,
		"ledgerEnabled", opts.EnableLedger,
	)

	data, err := p.validate(file, meta)
	if err != nil {
		logCtx.Warn("Upload rejected.", "error", err)
		return nil, err
	}

	contentHash := hashing.DigestBytes(data)
	logCtx = logCtx.With("contentHash", contentHash)

	key := storagekey.ObjectKey(subject.ID, meta.Filename, time.Now())
	path, err := p.objects.Put(ctx, key, data, meta.ContentType)
	if err != nil {
		logCtx.Error("Primary storage failed. Aborting pipeline.", "error", err)
		return nil, models.NewStorageError(err)
	}
	logCtx.Info("Primary storage complete.", "path", path)

	var receipt *PublishReceipt
	var ledgerRecord *models.LedgerRecord
	score := scoreBase

	stages := []optionalStage{
		{
			name:    "publish",
			bonus:   scoreDistributed,
			enabled: func() bool { return opts.EnableDistributedStorage && p.distributed != nil },
			run: func(ctx context.Context) error {
				r, err := p.distributed.Publish(ctx, data, meta.Filename)
				if err != nil {
					return models.NewPublishError(err)
				}
				receipt = r
				return nil
			},
		},
		{
			// Anchoring references the distributed-storage hash, so it only
			// runs when the publish stage was enabled and succeeded.
			name:    "anchor",
			bonus:   scoreLedger,
			enabled: func() bool { return opts.EnableLedger && receipt != nil && p.ledger != nil },
			run: func(ctx context.Context) error {
				rec, err := p.ledger.Anchor(ctx, subject.ID, contentHash, receipt.NetworkHash)
				if err != nil {
					return models.NewAnchorError(err)
				}
				ledgerRecord = rec
				return nil
			},
		},
	}
	for _, stage := range stages {
		if !stage.enabled() {
			logCtx.Info("Optional stage skipped.", "stage", stage.name)
			continue
		}
		if err := stage.run(ctx); err != nil {
			logCtx.Warn("Optional stage failed. Continuing with degraded score.", "stage", stage.name, "error", err)
			continue
		}
		score += stage.bonus
		logCtx.Info("Optional stage complete.", "stage", stage.name)
	}

	storage := models.StorageLocation{Kind: models.StorageKindObject, Path: path}
	if receipt != nil {
		storage.Kind = models.StorageKindDistributed
		storage.NetworkHash = receipt.NetworkHash
		storage.GatewayURL = receipt.GatewayURL
	}

	asset := &models.Asset{
		OwnerID:          subject.ID,
		ContentHash:      contentHash,
		OriginalFilename: meta.Filename,
		ContentType:      meta.ContentType,
		SizeBytes:        int64(len(data)),
		Storage:          storage,
		Ledger:           ledgerRecord,
		ProtectionScore:  score,
		Status:           models.AssetStatusProtected,
		CreatedAt:        time.Now(),
	}
	assetID, err := p.catalog.CreateAsset(ctx, asset)
	if err != nil {
		logCtx.Error("Failed to persist asset record.", "error", err)
		return nil, fmt.Errorf("failed to persist asset record: %w", err)
	}
	logCtx = logCtx.With("assetId", assetID)
	logCtx.Info("Protection pipeline complete.", "protectionScore", score)

	p.handOff(ctx, logCtx, assetID, contentHash, subject.ID)

	return &models.ProtectionResult{
		AssetID:         assetID,
		ContentHash:     contentHash,
		Storage:         storage,
		Ledger:          ledgerRecord,
		ProtectionScore: score,
	}, nil
}

// validate enforces the upload ceiling and MIME allow-list, returning the
// file's bytes on success. The reader is consumed at most one byte past the
// ceiling.
func (p *Protector) validate(file io.Reader, meta models.UploadMetadata) ([]byte, error) {
	allowed := false
	for _, ct := range p.config.AllowedContentTypes {
		if ct == meta.ContentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &models.ValidationError{
			Constraint: fmt.Sprintf("File type %s is not supported", meta.ContentType),
		}
	}

	data, err := io.ReadAll(io.LimitReader(file, p.config.MaxUploadBytes+1))
	if err != nil {
		return nil, models.NewInputError(fmt.Errorf("failed to read upload: %w", err))
	}
	if int64(len(data)) > p.config.MaxUploadBytes {
		return nil, &models.ValidationError{
			Constraint: fmt.Sprintf("File size exceeds %dMB limit", p.config.MaxUploadBytes>>20),
		}
	}
	return data, nil
}

// handOff triggers the post-protection workflow. The asset is already
// persisted; a hand-off failure is logged and otherwise invisible to the
// caller.
func (p *Protector) handOff(ctx context.Context, logCtx *slog.Logger, assetID, contentHash, ownerID string) {
	if p.workflow == nil {
		return
	}
	argument := map[string]interface{}{
		"assetId":     assetID,
		"contentHash": contentHash,
		"ownerId":     ownerID,
	}
	if err := p.workflow.Trigger(ctx, argument); err != nil {
		logCtx.Warn("Post-protection workflow hand-off failed.", "error", err)
		return
	}
	logCtx.Info("Hand-off to post-protection workflow complete.")
}
