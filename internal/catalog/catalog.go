// Package catalog is the content catalog: the system of record for assets,
// certificates and the audit log. Services depend on the Catalog interface;
// the Firestore implementation backs the deployed functions and tests inject
// fakes.
package catalog

import (
	"context"
	"time"

	"github.com/chainproof-io/chainproof/internal/models"
)

// Catalog is the persistence port for the protection core. Implementations
// must return models.ErrNotFound (possibly wrapped) from lookups that find
// nothing, and must perform IncrementVerificationCount as a single
// server-side increment rather than a read-modify-write.
type Catalog interface {
	CreateAsset(ctx context.Context, asset *models.Asset) (string, error)
	GetAsset(ctx context.Context, assetID string) (*models.Asset, error)
	MarkAssetRevoked(ctx context.Context, assetID, reason string, at time.Time) error

	CreateCertificate(ctx context.Context, cert *models.Certificate) error
	GetCertificate(ctx context.Context, certificateID string) (*models.Certificate, error)
	IncrementVerificationCount(ctx context.Context, certificateID string) error
	ListActiveCertificatesByContentHash(ctx context.Context, contentHash string) ([]*models.Certificate, error)
	MarkCertificateRevoked(ctx context.Context, certificateID, reason string, at time.Time) error

	AddAuditEntry(ctx context.Context, entry *models.AuditEntry) error
}
