// Package ledger anchors content hashes on the blockchain test network
// through the ChainProof anchor relay, a small REST service that signs and
// submits registration transactions on behalf of the platform.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chainproof-io/chainproof/internal/models"
)

// Client talks to one anchor relay endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ledger relay URL must be provided")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

type anchorRequest struct {
	SubjectID   string `json:"subjectId"`
	ContentHash string `json:"contentHash"`
	AuxHash     string `json:"auxHash,omitempty"`
}

type anchorResponse struct {
	TransactionRef string    `json:"transactionRef"`
	BlockRef       string    `json:"blockRef"`
	Timestamp      time.Time `json:"timestamp"`
	SubjectAddress string    `json:"subjectAddress"`
}

// Anchor registers the (subject, contentHash, auxHash) triple on the ledger
// and returns the resulting transaction reference. The relay blocks until
// the transaction is included in a block, so a success here is final.
func (c *Client) Anchor(ctx context.Context, subjectID, contentHash, auxHash string) (*models.LedgerRecord, error) {
	payload, err := json.Marshal(anchorRequest{
		SubjectID:   subjectID,
		ContentHash: contentHash,
		AuxHash:     auxHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal anchor payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/anchors", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build anchor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anchor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anchor relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode anchor response: %w", err)
	}
	if parsed.TransactionRef == "" {
		return nil, fmt.Errorf("anchor response carried no transaction reference")
	}

	return &models.LedgerRecord{
		TransactionRef: parsed.TransactionRef,
		BlockRef:       parsed.BlockRef,
		Timestamp:      parsed.Timestamp,
		SubjectAddress: parsed.SubjectAddress,
	}, nil
}
