// Package hashing computes the content fingerprint used everywhere a file is
// identified: the protection pipeline, certificate snapshots and the QR
// verification payload all carry the same lowercase hex SHA-256 digest.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/chainproof-io/chainproof/internal/models"
)

// Digest reads r to EOF and returns the hex-encoded SHA-256 of its contents.
// Deterministic and side-effect free; the only failure mode is an unreadable
// input.
func Digest(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", models.NewInputError(fmt.Errorf("failed to read input: %w", err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes is Digest for in-memory content.
func DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
