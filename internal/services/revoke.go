package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chainproof-io/chainproof/internal/catalog"
	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultCascadeReason is recorded on cascade-revoked certificates when the
// caller gave no reason for the asset revocation.
const DefaultCascadeReason = "source asset revoked"

// Revoker revokes assets and cascades the revocation to their certificates.
type Revoker struct {
	catalog  catalog.Catalog
	subjects SubjectProvider
}

func NewRevoker(cat catalog.Catalog, subjects SubjectProvider) (*Revoker, error) {
	if cat == nil || subjects == nil {
		return nil, fmt.Errorf("catalog and subject provider are required")
	}
	return &Revoker{catalog: cat, subjects: subjects}, nil
}

// RevokeAsset marks an asset revoked, cascades to every still-active
// certificate bound to its content hash, and records an audit entry. The
// asset must exist, belong to the caller and not already be revoked.
// Off-chain cleanup is not attempted; the result's advisory booleans flag
// what downstream jobs still owe.
func (r *Revoker) RevokeAsset(ctx context.Context, req *models.RevokeAssetRequest) (*models.RevocationResult, error) {
	subject, err := r.subjects.CurrentSubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	asset, err := r.catalog.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.OwnerID != subject.ID {
		return nil, fmt.Errorf("asset %s: %w", req.AssetID, models.ErrNotFound)
	}
	if asset.Status == models.AssetStatusRevoked {
		return nil, fmt.Errorf("asset %s: %w", req.AssetID, models.ErrAlreadyRevoked)
	}

	logCtx := slog.With("assetId", req.AssetID, "ownerId", subject.ID, "contentHash", asset.ContentHash)
	logCtx.Info("Revoking asset.", "reason", req.Reason)

	now := time.Now().UTC()
	previousStatus := asset.Status
	if err := r.catalog.MarkAssetRevoked(ctx, req.AssetID, req.Reason, now); err != nil {
		return nil, err
	}

	cascadeReason := req.Reason
	if cascadeReason == "" {
		cascadeReason = DefaultCascadeReason
	}
	revokedCount, err := r.cascade(ctx, logCtx, asset.ContentHash, cascadeReason, now)
	if err != nil {
		// The asset is already revoked at this point; there is no rollback.
		return nil, fmt.Errorf("asset %s revoked, but certificate cascade failed: %w", req.AssetID, err)
	}

	entry := &models.AuditEntry{
		ID:                       uuid.NewString(),
		Action:                   "asset.revoke",
		AssetID:                  req.AssetID,
		ActorID:                  subject.ID,
		PreviousStatus:           string(previousStatus),
		Reason:                   req.Reason,
		CertificatesRevoked:      revokedCount,
		BlockchainUpdateRequired: asset.Ledger != nil,
		IPFSRemovalRequired:      asset.Storage.Kind == models.StorageKindDistributed,
		CreatedAt:                now,
	}
	if err := r.catalog.AddAuditEntry(ctx, entry); err != nil {
		logCtx.Error("Failed to write revocation audit entry.", "error", err)
	}

	if req.NotifyOwner {
		logCtx.Info("Owner notification requested for revocation.")
	}
	logCtx.Info("Asset revoked.", "certificatesRevoked", revokedCount)

	return &models.RevocationResult{
		AssetID:                  req.AssetID,
		PreviousStatus:           string(previousStatus),
		Reason:                   req.Reason,
		CertificatesRevoked:      revokedCount,
		BlockchainUpdateRequired: entry.BlockchainUpdateRequired,
		IPFSRemovalRequired:      entry.IPFSRemovalRequired,
		RevokedAt:                now,
	}, nil
}

// cascade revokes every active certificate whose snapshot carries the given
// content hash. Certificates for other hashes are untouched.
func (r *Revoker) cascade(ctx context.Context, logCtx *slog.Logger, contentHash, reason string, at time.Time) (int, error) {
	certs, err := r.catalog.ListActiveCertificatesByContentHash(ctx, contentHash)
	if err != nil {
		return 0, err
	}
	if len(certs) == 0 {
		return 0, nil
	}
	logCtx.Info("Cascading revocation to certificates.", "count", len(certs))

	var revoked atomic.Int64
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)
	for _, cert := range certs {
		eg.Go(func() error {
			if err := r.catalog.MarkCertificateRevoked(gctx, cert.CertificateID, reason, at); err != nil {
				return fmt.Errorf("certificate %s: %w", cert.CertificateID, err)
			}
			revoked.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return int(revoked.Load()), err
	}
	return int(revoked.Load()), nil
}
