package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/chainproof-io/chainproof/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type issuerFixture struct {
	catalog     *fakeCatalog
	objects     *fakeObjectStore
	distributed *fakeDistributed
	issuer      *services.Issuer
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()
	f := &issuerFixture{
		catalog:     newFakeCatalog(),
		objects:     newFakeObjectStore(),
		distributed: newFakeDistributed(),
	}
	issuer, err := services.NewIssuer(
		services.IssuerConfig{VerificationBaseURL: "https://chainproof.test/verify"},
		f.catalog, f.objects, f.distributed, services.ContextSubjectProvider{},
	)
	require.NoError(t, err)
	f.issuer = issuer
	return f
}

func sampleIssueRequest() *models.IssueRequest {
	return &models.IssueRequest{
		OwnerName:      "Ada Lovelace",
		AssetTitle:     "Analytical Engine Notes",
		ContentHash:    strings.Repeat("ab", 32),
		ProtectionDate: time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC),
		Ledger: &models.LedgerRecord{
			TransactionRef: "0xdeadbeef",
			BlockRef:       "777",
			Timestamp:      time.Date(2026, 4, 2, 10, 31, 0, 0, time.UTC),
		},
		DistributedRef: "QmSourceHash",
	}
}

func TestIssueCertificate(t *testing.T) {
	f := newIssuerFixture(t)
	req := sampleIssueRequest()

	res, err := f.issuer.Issue(authedCtx(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.CertificateID, "CP-"), "certificate id %q", res.CertificateID)
	assert.Equal(t, "https://chainproof.test/verify/"+res.CertificateID, res.VerificationURL)
	assert.Equal(t, res.CertificateID+".pdf", res.FileName)
	assert.Equal(t, int64(len(res.Artifact)), res.FileSize)
	assert.True(t, strings.HasPrefix(string(res.Artifact), "%PDF-"), "artifact is not a PDF")
	assert.Equal(t, "ipfs://QmTestHash1234", res.IPFSURI)

	// The QR payload binds the verification URL to the content hash.
	var payload struct {
		URL         string `json:"url"`
		ContentHash string `json:"contentHash"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.QRPayload), &payload))
	assert.Equal(t, res.VerificationURL, payload.URL)
	assert.Equal(t, req.ContentHash, payload.ContentHash)

	// Artifact persisted under the certificate key.
	stored, ok := f.objects.objects["certificates/"+res.FileName]
	require.True(t, ok, "artifact was not persisted")
	assert.Equal(t, res.Artifact, stored)

	// Metadata snapshot matches the request.
	cert, err := f.catalog.GetCertificate(context.Background(), res.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", cert.OwnerID)
	assert.Equal(t, req.ContentHash, cert.Snapshot.ContentHash)
	assert.Equal(t, req.OwnerName, cert.Snapshot.OwnerName)
	assert.Equal(t, models.CertificateStatusActive, cert.Status)
	assert.Zero(t, cert.VerificationCount)
}

func TestIssueCertificateIDsAreUnique(t *testing.T) {
	f := newIssuerFixture(t)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		res, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
		require.NoError(t, err)
		assert.False(t, seen[res.CertificateID], "duplicate certificate id %s", res.CertificateID)
		seen[res.CertificateID] = true
	}
}

func TestIssueMissingField(t *testing.T) {
	f := newIssuerFixture(t)
	req := sampleIssueRequest()
	req.ContentHash = ""

	_, err := f.issuer.Issue(authedCtx(), req)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Missing required field contentHash", validationErr.Error())
	assert.Empty(t, f.catalog.certificates)
	assert.Empty(t, f.objects.objects)
}

func TestIssueDistributedPublishIsBestEffort(t *testing.T) {
	f := newIssuerFixture(t)
	f.distributed.failWith = errors.New("pinning service down")

	res, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
	require.NoError(t, err)
	assert.Empty(t, res.IPFSURI)

	cert, err := f.catalog.GetCertificate(context.Background(), res.CertificateID)
	require.NoError(t, err)
	assert.Empty(t, cert.IPFSURI)
	assert.Equal(t, models.CertificateStatusActive, cert.Status)
}

func TestIssueArtifactPersistenceFailureIsFatal(t *testing.T) {
	f := newIssuerFixture(t)
	f.objects.failPut = errors.New("bucket unavailable")

	_, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "storage", stageErr.Stage)
	assert.Empty(t, f.catalog.certificates)
}

func TestVerifyUnknownCertificate(t *testing.T) {
	f := newIssuerFixture(t)

	res, err := f.issuer.Verify(context.Background(), "CP-unknown")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Certificate not found", res.Error)
	assert.Nil(t, res.Certificate)
}

func TestVerifyActiveCertificate(t *testing.T) {
	f := newIssuerFixture(t)
	issued, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
	require.NoError(t, err)

	res, err := f.issuer.Verify(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, sampleIssueRequest().ContentHash, res.Certificate.Snapshot.ContentHash)
	assert.Equal(t, int64(1), res.Certificate.VerificationCount)
}

func TestVerifySnapshotIsolation(t *testing.T) {
	f := newIssuerFixture(t)
	req := sampleIssueRequest()
	issued, err := f.issuer.Issue(authedCtx(), req)
	require.NoError(t, err)

	// Later changes to catalog assets never reach the issued certificate;
	// verification keeps reporting the hash passed at issuance.
	_, err = f.catalog.CreateAsset(context.Background(), &models.Asset{
		OwnerID:     "user-1",
		ContentHash: "a completely different hash",
		Status:      models.AssetStatusProtected,
	})
	require.NoError(t, err)

	res, err := f.issuer.Verify(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, req.ContentHash, res.Certificate.Snapshot.ContentHash)
}

func TestVerifyRevokedCertificate(t *testing.T) {
	f := newIssuerFixture(t)
	issued, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
	require.NoError(t, err)

	require.NoError(t, f.issuer.RevokeCertificate(context.Background(), issued.CertificateID, "test revocation"))

	res, err := f.issuer.Verify(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Certificate has been revoked", res.Error)
	require.NotNil(t, res.Certificate)
	assert.Equal(t, "test revocation", res.Certificate.RevocationReason)
}

func TestVerifyCounterUnderConcurrency(t *testing.T) {
	f := newIssuerFixture(t)
	issued, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.issuer.Verify(context.Background(), issued.CertificateID)
			if err != nil {
				errs <- err
				return
			}
			if !res.Valid {
				errs <- errors.New("expected valid result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	cert, err := f.catalog.GetCertificate(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), cert.VerificationCount)
}

func TestRevokeCertificateTwice(t *testing.T) {
	f := newIssuerFixture(t)
	issued, err := f.issuer.Issue(authedCtx(), sampleIssueRequest())
	require.NoError(t, err)

	require.NoError(t, f.issuer.RevokeCertificate(context.Background(), issued.CertificateID, "first"))
	err = f.issuer.RevokeCertificate(context.Background(), issued.CertificateID, "second")
	require.ErrorIs(t, err, models.ErrAlreadyRevoked)

	cert, err := f.catalog.GetCertificate(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, "first", cert.RevocationReason)
}

func TestRevokeUnknownCertificate(t *testing.T) {
	f := newIssuerFixture(t)
	err := f.issuer.RevokeCertificate(context.Background(), "CP-unknown", "whatever")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestIssueUnauthenticated(t *testing.T) {
	f := newIssuerFixture(t)
	_, err := f.issuer.Issue(context.Background(), sampleIssueRequest())
	require.ErrorIs(t, err, models.ErrUnauthenticated)
}
