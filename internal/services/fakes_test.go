package services_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/chainproof-io/chainproof/internal/services"
)

// fakeCatalog is an in-memory catalog. The mutex mirrors the per-row write
// serialization the real store provides, which the verification-counter
// tests rely on.
type fakeCatalog struct {
	mu              sync.Mutex
	assets          map[string]*models.Asset
	certificates    map[string]*models.Certificate
	auditEntries    []*models.AuditEntry
	nextAssetID     int
	failCreateAsset error
	failCreateCert  error
	failMarkCert    error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		assets:       make(map[string]*models.Asset),
		certificates: make(map[string]*models.Certificate),
	}
}

func (c *fakeCatalog) CreateAsset(_ context.Context, asset *models.Asset) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreateAsset != nil {
		return "", c.failCreateAsset
	}
	c.nextAssetID++
	id := fmt.Sprintf("asset-%d", c.nextAssetID)
	stored := *asset
	stored.ID = id
	c.assets[id] = &stored
	asset.ID = id
	return id, nil
}

func (c *fakeCatalog) GetAsset(_ context.Context, assetID string) (*models.Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	asset, ok := c.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", assetID, models.ErrNotFound)
	}
	copied := *asset
	return &copied, nil
}

func (c *fakeCatalog) MarkAssetRevoked(_ context.Context, assetID, reason string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	asset, ok := c.assets[assetID]
	if !ok {
		return fmt.Errorf("asset %s: %w", assetID, models.ErrNotFound)
	}
	asset.Status = models.AssetStatusRevoked
	asset.RevocationReason = reason
	asset.RevokedAt = &at
	return nil
}

func (c *fakeCatalog) CreateCertificate(_ context.Context, cert *models.Certificate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreateCert != nil {
		return c.failCreateCert
	}
	copied := *cert
	c.certificates[cert.CertificateID] = &copied
	return nil
}

func (c *fakeCatalog) GetCertificate(_ context.Context, certificateID string) (*models.Certificate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cert, ok := c.certificates[certificateID]
	if !ok {
		return nil, fmt.Errorf("certificate %s: %w", certificateID, models.ErrNotFound)
	}
	copied := *cert
	return &copied, nil
}

func (c *fakeCatalog) IncrementVerificationCount(_ context.Context, certificateID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cert, ok := c.certificates[certificateID]
	if !ok {
		return fmt.Errorf("certificate %s: %w", certificateID, models.ErrNotFound)
	}
	cert.VerificationCount++
	return nil
}

func (c *fakeCatalog) ListActiveCertificatesByContentHash(_ context.Context, contentHash string) ([]*models.Certificate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*models.Certificate
	for _, cert := range c.certificates {
		if cert.Snapshot.ContentHash == contentHash && cert.Status == models.CertificateStatusActive {
			copied := *cert
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (c *fakeCatalog) MarkCertificateRevoked(_ context.Context, certificateID, reason string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failMarkCert != nil {
		return c.failMarkCert
	}
	cert, ok := c.certificates[certificateID]
	if !ok {
		return fmt.Errorf("certificate %s: %w", certificateID, models.ErrNotFound)
	}
	cert.Status = models.CertificateStatusRevoked
	cert.RevocationReason = reason
	cert.RevokedAt = &at
	return nil
}

func (c *fakeCatalog) AddAuditEntry(_ context.Context, entry *models.AuditEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *entry
	c.auditEntries = append(c.auditEntries, &copied)
	return nil
}

// fakeObjectStore records puts in memory.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return "", s.failPut
	}
	s.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *fakeObjectStore) PublicURL(key string) string {
	return "https://objects.test/" + key
}

// fakeDistributed succeeds with a canned receipt unless failWith is set.
type fakeDistributed struct {
	failWith error
	calls    int
	receipt  services.PublishReceipt
}

func newFakeDistributed() *fakeDistributed {
	return &fakeDistributed{
		receipt: services.PublishReceipt{
			NetworkHash: "QmTestHash1234",
			SizeBytes:   42,
			GatewayURL:  "https://gateway.test/ipfs/QmTestHash1234",
		},
	}
}

func (d *fakeDistributed) Publish(_ context.Context, data []byte, _ string) (*services.PublishReceipt, error) {
	d.calls++
	if d.failWith != nil {
		return nil, d.failWith
	}
	receipt := d.receipt
	receipt.SizeBytes = int64(len(data))
	return &receipt, nil
}

// fakeLedger records the anchor arguments it saw.
type fakeLedger struct {
	failWith    error
	calls       int
	lastSubject string
	lastContent string
	lastAux     string
}

func (l *fakeLedger) Anchor(_ context.Context, subjectID, contentHash, auxHash string) (*models.LedgerRecord, error) {
	l.calls++
	l.lastSubject = subjectID
	l.lastContent = contentHash
	l.lastAux = auxHash
	if l.failWith != nil {
		return nil, l.failWith
	}
	return &models.LedgerRecord{
		TransactionRef: "0xfeedbeef",
		BlockRef:       "12345",
		Timestamp:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		SubjectAddress: "0xsubject",
	}, nil
}

// fakeWorkflow records hand-off arguments.
type fakeWorkflow struct {
	failWith  error
	arguments []map[string]interface{}
}

func (f *fakeWorkflow) Trigger(_ context.Context, argument map[string]interface{}) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.arguments = append(f.arguments, argument)
	return nil
}
