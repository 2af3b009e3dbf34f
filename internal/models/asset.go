package models

import "time"

// AssetStatus tracks an asset through the protection lifecycle.
type AssetStatus string

const (
	AssetStatusDraft      AssetStatus = "draft"
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusProtected  AssetStatus = "protected"
	AssetStatusFailed     AssetStatus = "failed"
	AssetStatusRevoked    AssetStatus = "revoked"
)

// StorageLocationKind discriminates where an asset's bytes can be retrieved.
type StorageLocationKind string

const (
	StorageKindObject      StorageLocationKind = "object"
	StorageKindDistributed StorageLocationKind = "distributed"
)

// StorageLocation records where the asset's raw bytes live. The object path
// is always present (the primary store is mandatory); NetworkHash and
// GatewayURL are populated only when the distributed-storage stage succeeded,
// in which case Kind is "distributed".
type StorageLocation struct {
	Kind        StorageLocationKind `firestore:"kind" json:"kind"`
	Path        string              `firestore:"path" json:"path"`
	NetworkHash string              `firestore:"networkHash,omitempty" json:"networkHash,omitempty"`
	GatewayURL  string              `firestore:"gatewayUrl,omitempty" json:"gatewayUrl,omitempty"`
}

// LedgerRecord is the on-ledger anchor for a content hash. Present on an
// asset only if the ledger stage succeeded.
type LedgerRecord struct {
	TransactionRef string    `firestore:"transactionRef" json:"transactionRef"`
	BlockRef       string    `firestore:"blockRef" json:"blockRef"`
	Timestamp      time.Time `firestore:"timestamp" json:"timestamp"`
	SubjectAddress string    `firestore:"subjectAddress,omitempty" json:"subjectAddress,omitempty"`
}

// Asset is the master record for one protected upload. ContentHash is the
// canonical location of the fingerprint; nothing reads it from metadata.
type Asset struct {
	ID               string          `firestore:"-" json:"id"`
	OwnerID          string          `firestore:"ownerId" json:"ownerId"`
	ContentHash      string          `firestore:"contentHash" json:"contentHash"`
	OriginalFilename string          `firestore:"originalFilename,omitempty" json:"originalFilename,omitempty"`
	ContentType      string          `firestore:"contentType,omitempty" json:"contentType,omitempty"`
	SizeBytes        int64           `firestore:"sizeBytes" json:"sizeBytes"`
	Storage          StorageLocation `firestore:"storage" json:"storage"`
	Ledger           *LedgerRecord   `firestore:"ledger,omitempty" json:"ledger,omitempty"`
	ProtectionScore  int             `firestore:"protectionScore" json:"protectionScore"`
	Status           AssetStatus     `firestore:"status" json:"status"`
	CreatedAt        time.Time       `firestore:"createdAt" json:"createdAt"`
	RevokedAt        *time.Time      `firestore:"revokedAt,omitempty" json:"revokedAt,omitempty"`
	RevocationReason string          `firestore:"revocationReason,omitempty" json:"revocationReason,omitempty"`
}
