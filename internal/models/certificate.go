package models

import "time"

// CertificateStatus tracks a certificate's validity.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "active"
	CertificateStatusRevoked CertificateStatus = "revoked"
	CertificateStatusExpired CertificateStatus = "expired"
)

// CertificateSnapshot is the denormalized copy of the asset state at issuance
// time. It is never updated, even if the source asset changes later; the
// certificate remains verifiable against exactly what it attested to.
type CertificateSnapshot struct {
	ContentHash    string        `firestore:"contentHash" json:"contentHash"`
	ProtectionDate time.Time     `firestore:"protectionDate" json:"protectionDate"`
	Ledger         *LedgerRecord `firestore:"ledger,omitempty" json:"ledger,omitempty"`
	DistributedRef string        `firestore:"distributedRef,omitempty" json:"distributedRef,omitempty"`
	AssetTitle     string        `firestore:"assetTitle" json:"assetTitle"`
	OwnerName      string        `firestore:"ownerName" json:"ownerName"`
}

// Certificate is one independently revocable claim document bound to a
// content hash. Many certificates may reference the same asset over time.
type Certificate struct {
	CertificateID     string              `firestore:"-" json:"certificateId"`
	OwnerID           string              `firestore:"ownerId" json:"ownerId"`
	Snapshot          CertificateSnapshot `firestore:"snapshot" json:"snapshot"`
	VerificationURL   string              `firestore:"verificationUrl" json:"verificationUrl"`
	ArtifactPath      string              `firestore:"artifactPath" json:"artifactPath"`
	ArtifactFilename  string              `firestore:"artifactFilename" json:"artifactFilename"`
	ArtifactSize      int64               `firestore:"artifactSize" json:"artifactSize"`
	IPFSURI           string              `firestore:"ipfsUri,omitempty" json:"ipfsUri,omitempty"`
	Status            CertificateStatus   `firestore:"status" json:"status"`
	VerificationCount int64               `firestore:"verificationCount" json:"verificationCount"`
	IssuedAt          time.Time           `firestore:"issuedAt" json:"issuedAt"`
	RevokedAt         *time.Time          `firestore:"revokedAt,omitempty" json:"revokedAt,omitempty"`
	RevocationReason  string              `firestore:"revocationReason,omitempty" json:"revocationReason,omitempty"`
}

// AuditEntry records one administrative action (currently: asset revocation)
// for traceability. The two *Required booleans are advisory flags for
// downstream cleanup jobs; ledgers are append-only, so "cleanup" there means
// at most publishing a revocation marker.
type AuditEntry struct {
	ID                       string    `firestore:"-" json:"id"`
	Action                   string    `firestore:"action" json:"action"`
	AssetID                  string    `firestore:"assetId" json:"assetId"`
	ActorID                  string    `firestore:"actorId" json:"actorId"`
	PreviousStatus           string    `firestore:"previousStatus" json:"previousStatus"`
	Reason                   string    `firestore:"reason" json:"reason"`
	CertificatesRevoked      int       `firestore:"certificatesRevoked" json:"certificatesRevoked"`
	BlockchainUpdateRequired bool      `firestore:"blockchainUpdateRequired" json:"blockchainUpdateRequired"`
	IPFSRemovalRequired      bool      `firestore:"ipfsRemovalRequired" json:"ipfsRemovalRequired"`
	CreatedAt                time.Time `firestore:"createdAt" json:"createdAt"`
}
