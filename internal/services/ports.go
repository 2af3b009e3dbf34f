package services

import (
	"context"

	"github.com/chainproof-io/chainproof/internal/models"
)

// Collaborator interfaces consumed by the services. Each is satisfied by one
// concrete client (internal/gcp, internal/ipfs, internal/ledger) in the
// deployed functions and by fakes in tests; the services never construct
// their own clients.

// Subject identifies the authenticated caller.
type Subject struct {
	ID string
}

// SubjectProvider resolves the current subject for a request. It fails
// closed: no valid subject means models.ErrUnauthenticated.
type SubjectProvider interface {
	CurrentSubject(ctx context.Context) (Subject, error)
}

// ObjectStore is the mandatory primary blob store.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
}

// PublishReceipt reports a successful publish to distributed storage.
type PublishReceipt struct {
	NetworkHash string
	SizeBytes   int64
	GatewayURL  string
}

// DistributedStorage is the optional content-addressed store.
type DistributedStorage interface {
	Publish(ctx context.Context, data []byte, filename string) (*PublishReceipt, error)
}

// Ledger anchors a content hash on the append-only public ledger.
type Ledger interface {
	Anchor(ctx context.Context, subjectID, contentHash, auxHash string) (*models.LedgerRecord, error)
}

// WorkflowTrigger hands a completed protection off to the post-protection
// workflow (scan scheduling, notifications). Best-effort only.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, argument map[string]interface{}) error
}
