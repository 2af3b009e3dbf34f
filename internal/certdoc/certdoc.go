// Package certdoc renders the downloadable protection certificate: an A4 PDF
// carrying the asset's fingerprint, its protection details and a QR-encoded
// verification payload. Rendering is deterministic for a given request; only
// the GeneratedAt timestamp the caller supplies varies between issuances.
package certdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpumodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	qrcode "github.com/skip2/go-qrcode"
)

// Request carries everything the certificate attests to.
type Request struct {
	CertificateID   string
	OwnerName       string
	AssetTitle      string
	ContentHash     string
	ProtectionDate  time.Time
	Ledger          *models.LedgerRecord
	DistributedRef  string
	VerificationURL string
	GeneratedAt     time.Time
}

// qrPayload is the JSON document embedded in the QR code. A verifier scans
// it and compares the hash against a fresh digest of the file, without
// needing the catalog or the original upload.
type qrPayload struct {
	URL            string              `json:"url"`
	ContentHash    string              `json:"contentHash"`
	ProtectionDate time.Time           `json:"protectionDate"`
	Ledger         *models.LedgerRecord `json:"ledger,omitempty"`
	Distributed    string              `json:"distributed,omitempty"`
}

// Render produces the certificate PDF and returns it along with the exact QR
// payload string embedded in it. Any construction failure is a RenderError.
func Render(req *Request) ([]byte, string, error) {
	payloadBytes, err := json.Marshal(qrPayload{
		URL:            req.VerificationURL,
		ContentHash:    req.ContentHash,
		ProtectionDate: req.ProtectionDate.UTC(),
		Ledger:         req.Ledger,
		Distributed:    req.DistributedRef,
	})
	if err != nil {
		return nil, "", models.NewRenderError(fmt.Errorf("failed to marshal QR payload: %w", err))
	}

	qrPNG, err := qrcode.Encode(string(payloadBytes), qrcode.Medium, 512)
	if err != nil {
		return nil, "", models.NewRenderError(fmt.Errorf("failed to encode QR code: %w", err))
	}

	raw, err := layout(req, qrPNG)
	if err != nil {
		return nil, "", models.NewRenderError(err)
	}

	optimized, err := optimizePDF(raw)
	if err != nil {
		return nil, "", models.NewRenderError(err)
	}
	return optimized, string(payloadBytes), nil
}

func layout(req *Request, qrPNG []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(req.GeneratedAt.UTC())
	pdf.SetTitle("ChainProof Certificate "+req.CertificateID, false)
	pdf.SetAuthor("ChainProof", false)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Branding header.
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 14, "ChainProof", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(0, 8, "Certificate of Content Protection", "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetDrawColor(30, 41, 59)
	pdf.SetLineWidth(0.6)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(8)

	pdf.SetTextColor(30, 41, 59)
	field(pdf, "Owner", req.OwnerName)
	field(pdf, "Asset", req.AssetTitle)
	field(pdf, "Protection Date", req.ProtectionDate.UTC().Format("2 January 2006, 15:04 UTC"))

	// The fingerprint gets its own block in a monospace face, split so the
	// full 64 hex characters stay legible.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Content Fingerprint (SHA-256)", "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 10)
	hash := req.ContentHash
	for len(hash) > 0 {
		n := min(len(hash), 32)
		pdf.CellFormat(0, 5, hash[:n], "", 1, "L", false, 0, "")
		hash = hash[n:]
	}
	pdf.Ln(4)

	if req.Ledger != nil {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Ledger Anchor", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 9)
		pdf.CellFormat(0, 5, "Transaction: "+req.Ledger.TransactionRef, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, "Block:       "+req.Ledger.BlockRef, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, "Anchored:    "+req.Ledger.Timestamp.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}
	if req.DistributedRef != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Distributed Storage", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 9)
		pdf.CellFormat(0, 5, req.DistributedRef, "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	// Verification QR block, centered.
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verification-qr", 80, pdf.GetY(), 50, 50, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + 54)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(0, 5, "Scan to verify this certificate", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Footer: verification URL, certificate ID, generation timestamp.
	pdf.SetFont("Courier", "", 9)
	pdf.CellFormat(0, 5, req.VerificationURL, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, "Certificate ID: "+req.CertificateID, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Generated at "+req.GeneratedAt.UTC().Format(time.RFC3339), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate document: %w", err)
	}
	return buf.Bytes(), nil
}

func field(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

// optimizePDF validates and compacts the rendered artifact through pdfcpu
// before it is persisted or handed to the caller.
func optimizePDF(raw []byte) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "certdoc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "raw.pdf")
	outPath := filepath.Join(tempDir, "optimized.pdf")
	if err := os.WriteFile(inPath, raw, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage artifact for optimization: %w", err)
	}

	cfg := pdfcpumodel.NewDefaultConfiguration()
	cfg.ValidationMode = pdfcpumodel.ValidationRelaxed
	if err := api.OptimizeFile(inPath, outPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to validate/optimize artifact: %w", err)
	}

	optimized, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read optimized artifact: %w", err)
	}
	return optimized, nil
}
