package certdoc_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/chainproof-io/chainproof/internal/certdoc"
	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() *certdoc.Request {
	return &certdoc.Request{
		CertificateID:   "CP-abc123",
		OwnerName:       "Ada Lovelace",
		AssetTitle:      "Analytical Engine Notes",
		ContentHash:     strings.Repeat("cd", 32),
		ProtectionDate:  time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC),
		VerificationURL: "https://chainproof.test/verify/CP-abc123",
		GeneratedAt:     time.Date(2026, 4, 2, 10, 32, 0, 0, time.UTC),
	}
}

func TestRenderProducesValidPDF(t *testing.T) {
	artifact, payload, err := certdoc.Render(sampleRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(artifact), "%PDF-"), "missing PDF header")
	assert.NotEmpty(t, payload)
}

func TestRenderQRPayloadBindsHashAndURL(t *testing.T) {
	req := sampleRequest()
	req.Ledger = &models.LedgerRecord{
		TransactionRef: "0xabc",
		BlockRef:       "42",
		Timestamp:      time.Date(2026, 4, 2, 10, 31, 0, 0, time.UTC),
	}
	req.DistributedRef = "QmPayloadHash"

	_, payload, err := certdoc.Render(req)
	require.NoError(t, err)

	var decoded struct {
		URL         string               `json:"url"`
		ContentHash string               `json:"contentHash"`
		Ledger      *models.LedgerRecord `json:"ledger"`
		Distributed string               `json:"distributed"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, req.VerificationURL, decoded.URL)
	assert.Equal(t, req.ContentHash, decoded.ContentHash)
	require.NotNil(t, decoded.Ledger)
	assert.Equal(t, "0xabc", decoded.Ledger.TransactionRef)
	assert.Equal(t, "QmPayloadHash", decoded.Distributed)
}

func TestRenderPayloadIsStable(t *testing.T) {
	first, payloadA, err := certdoc.Render(sampleRequest())
	require.NoError(t, err)
	second, payloadB, err := certdoc.Render(sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, payloadA, payloadB)
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
}

func TestRenderWithoutOptionalSections(t *testing.T) {
	req := sampleRequest()
	req.Ledger = nil
	req.DistributedRef = ""

	artifact, payload, err := certdoc.Render(req)
	require.NoError(t, err)
	assert.NotEmpty(t, artifact)
	assert.NotContains(t, payload, `"ledger"`)
	assert.NotContains(t, payload, `"distributed"`)
}
