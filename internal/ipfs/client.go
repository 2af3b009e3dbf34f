// Package ipfs publishes blobs to an IPFS node over its HTTP API. The node
// is an external collaborator (a hosted pinning endpoint in production); the
// client covers exactly the add operation the pipeline needs.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to one IPFS node API endpoint.
type Client struct {
	apiURL     string
	gatewayURL string
	authToken  string
	httpClient *http.Client
}

// Receipt is the outcome of one successful publish.
type Receipt struct {
	NetworkHash string
	SizeBytes   int64
	GatewayURL  string
}

// NewClient creates a client for the node API at apiURL. gatewayURL is used
// only to build retrieval URLs; authToken may be empty for unauthenticated
// nodes.
func NewClient(apiURL, gatewayURL, authToken string) (*Client, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("IPFS API URL must be provided")
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// addResponse is the node's reply to /api/v0/add. Size arrives as a decimal
// string.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Publish adds data to the network under filename and returns the resulting
// content hash. The node pins what it adds.
func (c *Client) Publish(ctx context.Context, data []byte, filename string) (*Receipt, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build add request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("IPFS add request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("IPFS add returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed addResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode IPFS add response: %w", err)
	}
	if parsed.Hash == "" {
		return nil, fmt.Errorf("IPFS add response carried no hash")
	}

	size, err := strconv.ParseInt(parsed.Size, 10, 64)
	if err != nil {
		// The hash is what matters; a malformed size is not worth failing over.
		size = int64(len(data))
	}

	return &Receipt{
		NetworkHash: parsed.Hash,
		SizeBytes:   size,
		GatewayURL:  c.RetrievalURL(parsed.Hash),
	}, nil
}

// RetrievalURL returns the gateway URL for a published hash.
func (c *Client) RetrievalURL(networkHash string) string {
	if c.gatewayURL == "" {
		return "https://ipfs.io/ipfs/" + networkHash
	}
	return c.gatewayURL + "/ipfs/" + networkHash
}
