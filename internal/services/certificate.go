package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chainproof-io/chainproof/internal/catalog"
	"github.com/chainproof-io/chainproof/internal/certdoc"
	"github.com/chainproof-io/chainproof/internal/models"
)

// IssuerConfig holds the issuance settings.
type IssuerConfig struct {
	// VerificationBaseURL is the public verification endpoint; the
	// certificate ID is appended to it to form each verification URL.
	VerificationBaseURL string
}

// Issuer issues, verifies and revokes protection certificates.
type Issuer struct {
	catalog     catalog.Catalog
	objects     ObjectStore
	distributed DistributedStorage
	subjects    SubjectProvider
	config      IssuerConfig
}

// NewIssuer wires an Issuer. distributed may be nil; the best-effort artifact
// publish is then skipped.
func NewIssuer(cfg IssuerConfig, cat catalog.Catalog, objects ObjectStore, distributed DistributedStorage, subjects SubjectProvider) (*Issuer, error) {
	if cat == nil || objects == nil || subjects == nil {
		return nil, fmt.Errorf("catalog, object store and subject provider are required")
	}
	if cfg.VerificationBaseURL == "" {
		return nil, fmt.Errorf("verification base URL must be configured")
	}
	cfg.VerificationBaseURL = strings.TrimRight(cfg.VerificationBaseURL, "/")
	return &Issuer{
		catalog:     cat,
		objects:     objects,
		distributed: distributed,
		subjects:    subjects,
		config:      cfg,
	}, nil
}

// newCertificateID builds the human-readable certificate ID: a "CP-" prefix,
// the issuance instant in base 36, and a random base-36 suffix for collision
// resistance within the same millisecond.
func newCertificateID(now time.Time) string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
	return fmt.Sprintf("CP-%s%s", strconv.FormatInt(now.UnixMilli(), 36), suffix)
}

// VerificationURL is the deterministic mapping from certificate ID to public
// verification endpoint.
func (i *Issuer) VerificationURL(certificateID string) string {
	return i.config.VerificationBaseURL + "/" + certificateID
}

// Issue renders, persists and registers one certificate for the given
// protection snapshot. Rendering and primary persistence failures are fatal;
// the distributed publish of the artifact is best-effort.
func (i *Issuer) Issue(ctx context.Context, req *models.IssueRequest) (*models.IssueResult, error) {
	subject, err := i.subjects.CurrentSubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	certificateID := newCertificateID(now)
	verificationURL := i.VerificationURL(certificateID)
	logCtx := slog.With("certificateId", certificateID, "contentHash", req.ContentHash, "ownerId", subject.ID)
	logCtx.Info("Issuing certificate.")

	artifact, qrPayload, err := certdoc.Render(&certdoc.Request{
		CertificateID:   certificateID,
		OwnerName:       req.OwnerName,
		AssetTitle:      req.AssetTitle,
		ContentHash:     req.ContentHash,
		ProtectionDate:  req.ProtectionDate,
		Ledger:          req.Ledger,
		DistributedRef:  req.DistributedRef,
		VerificationURL: verificationURL,
		GeneratedAt:     now,
	})
	if err != nil {
		logCtx.Error("Certificate rendering failed.", "error", err)
		return nil, err
	}

	filename := certificateID + ".pdf"
	artifactKey := "certificates/" + filename
	if _, err := i.objects.Put(ctx, artifactKey, artifact, "application/pdf"); err != nil {
		logCtx.Error("Failed to persist certificate artifact.", "error", err)
		return nil, models.NewStorageError(err)
	}

	// Publishing the artifact itself to distributed storage mirrors the
	// pipeline's tolerance: nice to have, never fatal.
	var ipfsURI string
	if i.distributed != nil {
		if receipt, err := i.distributed.Publish(ctx, artifact, filename); err != nil {
			logCtx.Warn("Best-effort artifact publish failed. Continuing without it.", "error", err)
		} else {
			ipfsURI = "ipfs://" + receipt.NetworkHash
		}
	}

	cert := &models.Certificate{
		CertificateID: certificateID,
		OwnerID:       subject.ID,
		Snapshot: models.CertificateSnapshot{
			ContentHash:    req.ContentHash,
			ProtectionDate: req.ProtectionDate,
			Ledger:         req.Ledger,
			DistributedRef: req.DistributedRef,
			AssetTitle:     req.AssetTitle,
			OwnerName:      req.OwnerName,
		},
		VerificationURL:  verificationURL,
		ArtifactPath:     artifactKey,
		ArtifactFilename: filename,
		ArtifactSize:     int64(len(artifact)),
		IPFSURI:          ipfsURI,
		Status:           models.CertificateStatusActive,
		IssuedAt:         now,
	}
	if err := i.catalog.CreateCertificate(ctx, cert); err != nil {
		logCtx.Error("Failed to persist certificate metadata.", "error", err)
		return nil, models.NewStorageError(err)
	}
	logCtx.Info("Certificate issued.", "artifactSize", len(artifact), "ipfsUri", ipfsURI)

	return &models.IssueResult{
		CertificateID:   certificateID,
		Artifact:        artifact,
		DownloadURL:     i.objects.PublicURL(artifactKey),
		IPFSURI:         ipfsURI,
		VerificationURL: verificationURL,
		QRPayload:       qrPayload,
		FileName:        filename,
		FileSize:        int64(len(artifact)),
		CreatedAt:       now,
	}, nil
}

// Verify resolves a certificate by ID. An unknown ID or an inactive status
// is a negative result, not an error; the error return is reserved for
// catalog failures. Each successful verification bumps the certificate's
// counter.
func (i *Issuer) Verify(ctx context.Context, certificateID string) (*models.VerifyResult, error) {
	cert, err := i.catalog.GetCertificate(ctx, certificateID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.VerifyResult{Valid: false, Error: "Certificate not found"}, nil
		}
		return nil, err
	}

	switch cert.Status {
	case models.CertificateStatusRevoked:
		return &models.VerifyResult{Valid: false, Certificate: cert, Error: "Certificate has been revoked"}, nil
	case models.CertificateStatusExpired:
		return &models.VerifyResult{Valid: false, Certificate: cert, Error: "Certificate has expired"}, nil
	}

	if err := i.catalog.IncrementVerificationCount(ctx, certificateID); err != nil {
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}
	cert.VerificationCount++

	return &models.VerifyResult{Valid: true, Certificate: cert}, nil
}

// RevokeCertificate marks one certificate revoked. Irreversible; revoking an
// already-revoked certificate fails with models.ErrAlreadyRevoked.
func (i *Issuer) RevokeCertificate(ctx context.Context, certificateID, reason string) error {
	cert, err := i.catalog.GetCertificate(ctx, certificateID)
	if err != nil {
		return err
	}
	if cert.Status == models.CertificateStatusRevoked {
		return fmt.Errorf("certificate %s: %w", certificateID, models.ErrAlreadyRevoked)
	}
	if err := i.catalog.MarkCertificateRevoked(ctx, certificateID, reason, time.Now().UTC()); err != nil {
		return err
	}
	slog.Info("Certificate revoked.", "certificateId", certificateID, "reason", reason)
	return nil
}

func validateIssueRequest(req *models.IssueRequest) error {
	missing := ""
	switch {
	case req.OwnerName == "":
		missing = "ownerName"
	case req.AssetTitle == "":
		missing = "assetTitle"
	case req.ContentHash == "":
		missing = "contentHash"
	case req.ProtectionDate.IsZero():
		missing = "protectionDate"
	}
	if missing != "" {
		return &models.ValidationError{Constraint: fmt.Sprintf("Missing required field %s", missing)}
	}
	return nil
}
