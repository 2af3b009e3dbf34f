package catalog

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/chainproof-io/chainproof/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names within one Firestore database.
const (
	assetsCollection       = "assets"
	certificatesCollection = "certificates"
	auditCollection        = "auditLog"
)

// FirestoreCatalog implements Catalog on Firestore. Assets get generated
// document IDs; certificates are keyed by their human-readable certificate
// ID.
type FirestoreCatalog struct {
	client *firestore.Client
}

func NewFirestoreCatalog(client *firestore.Client) *FirestoreCatalog {
	return &FirestoreCatalog{client: client}
}

func (c *FirestoreCatalog) CreateAsset(ctx context.Context, asset *models.Asset) (string, error) {
	docRef, _, err := c.client.Collection(assetsCollection).Add(ctx, asset)
	if err != nil {
		return "", fmt.Errorf("failed to create asset record: %w", err)
	}
	asset.ID = docRef.ID
	return docRef.ID, nil
}

func (c *FirestoreCatalog) GetAsset(ctx context.Context, assetID string) (*models.Asset, error) {
	snap, err := c.client.Collection(assetsCollection).Doc(assetID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("asset %s: %w", assetID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read asset %s: %w", assetID, err)
	}
	var asset models.Asset
	if err := snap.DataTo(&asset); err != nil {
		return nil, fmt.Errorf("failed to decode asset %s: %w", assetID, err)
	}
	asset.ID = snap.Ref.ID
	return &asset, nil
}

func (c *FirestoreCatalog) MarkAssetRevoked(ctx context.Context, assetID, reason string, at time.Time) error {
	_, err := c.client.Collection(assetsCollection).Doc(assetID).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.AssetStatusRevoked},
		{Path: "revocationReason", Value: reason},
		{Path: "revokedAt", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("asset %s: %w", assetID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to revoke asset %s: %w", assetID, err)
	}
	return nil
}

func (c *FirestoreCatalog) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	_, err := c.client.Collection(certificatesCollection).Doc(cert.CertificateID).Create(ctx, cert)
	if err != nil {
		return fmt.Errorf("failed to create certificate %s: %w", cert.CertificateID, err)
	}
	return nil
}

func (c *FirestoreCatalog) GetCertificate(ctx context.Context, certificateID string) (*models.Certificate, error) {
	snap, err := c.client.Collection(certificatesCollection).Doc(certificateID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("certificate %s: %w", certificateID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read certificate %s: %w", certificateID, err)
	}
	var cert models.Certificate
	if err := snap.DataTo(&cert); err != nil {
		return nil, fmt.Errorf("failed to decode certificate %s: %w", certificateID, err)
	}
	cert.CertificateID = snap.Ref.ID
	return &cert, nil
}

// IncrementVerificationCount bumps the counter server-side so concurrent
// verifications of a popular certificate cannot lose updates.
func (c *FirestoreCatalog) IncrementVerificationCount(ctx context.Context, certificateID string) error {
	_, err := c.client.Collection(certificatesCollection).Doc(certificateID).Update(ctx, []firestore.Update{
		{Path: "verificationCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("certificate %s: %w", certificateID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to increment verification count for %s: %w", certificateID, err)
	}
	return nil
}

func (c *FirestoreCatalog) ListActiveCertificatesByContentHash(ctx context.Context, contentHash string) ([]*models.Certificate, error) {
	iter := c.client.Collection(certificatesCollection).
		Where("snapshot.contentHash", "==", contentHash).
		Where("status", "==", models.CertificateStatusActive).
		Documents(ctx)
	defer iter.Stop()

	var certs []*models.Certificate
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list certificates for hash %s: %w", contentHash, err)
		}
		var cert models.Certificate
		if err := snap.DataTo(&cert); err != nil {
			return nil, fmt.Errorf("failed to decode certificate %s: %w", snap.Ref.ID, err)
		}
		cert.CertificateID = snap.Ref.ID
		certs = append(certs, &cert)
	}
	return certs, nil
}

func (c *FirestoreCatalog) MarkCertificateRevoked(ctx context.Context, certificateID, reason string, at time.Time) error {
	_, err := c.client.Collection(certificatesCollection).Doc(certificateID).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.CertificateStatusRevoked},
		{Path: "revocationReason", Value: reason},
		{Path: "revokedAt", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("certificate %s: %w", certificateID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to revoke certificate %s: %w", certificateID, err)
	}
	return nil
}

func (c *FirestoreCatalog) AddAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	_, err := c.client.Collection(auditCollection).Doc(entry.ID).Create(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to write audit entry %s: %w", entry.ID, err)
	}
	return nil
}
