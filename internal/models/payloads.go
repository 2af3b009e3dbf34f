package models

import "time"

// These structs define the JSON payloads exchanged between the Cloud
// Functions surface and its callers (the SPA and the post-protection
// workflow).

// ProtectOptions selects which optional pipeline stages run. The ledger
// stage is only ever attempted when the distributed stage was enabled and
// succeeded, since the anchor payload references the network hash.
type ProtectOptions struct {
	EnableDistributedStorage bool `json:"enableDistributedStorage"`
	EnableLedger             bool `json:"enableLedger"`
}

// UploadMetadata carries what the caller knows about the file being
// protected.
type UploadMetadata struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Title       string `json:"title,omitempty"`
}

// ProtectionResult summarizes one completed protection run.
type ProtectionResult struct {
	AssetID         string          `json:"assetId"`
	ContentHash     string          `json:"contentHash"`
	Storage         StorageLocation `json:"storage"`
	Ledger          *LedgerRecord   `json:"ledger,omitempty"`
	ProtectionScore int             `json:"protectionScore"`
}

// IssueRequest is the input for the issue-certificate function.
type IssueRequest struct {
	OwnerName      string        `json:"ownerName"`
	AssetTitle     string        `json:"assetTitle"`
	ContentHash    string        `json:"contentHash"`
	ProtectionDate time.Time     `json:"protectionDate"`
	Ledger         *LedgerRecord `json:"ledger,omitempty"`
	DistributedRef string        `json:"distributedRef,omitempty"`
}

// IssueResult is the output of the issue-certificate function. Artifact
// bytes are returned to the caller for immediate download; DownloadURL
// points at the persisted copy.
type IssueResult struct {
	CertificateID   string    `json:"certificateId"`
	Artifact        []byte    `json:"artifact"`
	DownloadURL     string    `json:"downloadUrl"`
	IPFSURI         string    `json:"ipfsUri,omitempty"`
	VerificationURL string    `json:"verificationUrl"`
	QRPayload       string    `json:"qrPayload"`
	FileName        string    `json:"fileName"`
	FileSize        int64     `json:"fileSize"`
	CreatedAt       time.Time `json:"createdAt"`
}

// VerifyResult is the output of the verify-certificate function. Error is a
// human-readable explanation when Valid is false; lookups that find nothing
// are a negative result, not a failure.
type VerifyResult struct {
	Valid       bool         `json:"valid"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// RevokeAssetRequest is the input for the revoke-asset function.
type RevokeAssetRequest struct {
	AssetID     string `json:"assetId"`
	Reason      string `json:"reason,omitempty"`
	NotifyOwner bool   `json:"notifyOwner,omitempty"`
}

// RevocationResult reports what a revocation touched and what cleanup is
// still owed downstream.
type RevocationResult struct {
	AssetID                  string    `json:"assetId"`
	PreviousStatus           string    `json:"previousStatus"`
	Reason                   string    `json:"reason"`
	CertificatesRevoked      int       `json:"certificatesRevoked"`
	BlockchainUpdateRequired bool      `json:"blockchainUpdateRequired"`
	IPFSRemovalRequired      bool      `json:"ipfsRemovalRequired"`
	RevokedAt                time.Time `json:"revokedAt"`
}
