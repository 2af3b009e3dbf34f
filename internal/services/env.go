package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/chainproof-io/chainproof/internal/catalog"
	"github.com/chainproof-io/chainproof/internal/gcp"
	"github.com/chainproof-io/chainproof/internal/ipfs"
	"github.com/chainproof-io/chainproof/internal/ledger"
)

// FromEnv constructors build the services the way the deployed functions
// need them: concrete GCP and HTTP clients, configured entirely from
// environment variables. Tests bypass these and inject fakes through the
// plain constructors.

func newCatalogFromEnv(ctx context.Context) (catalog.Catalog, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	client, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return catalog.NewFirestoreCatalog(client), nil
}

func newObjectStoreFromEnv(ctx context.Context) (*gcp.ObjectStore, error) {
	bucket := gcp.GetEnv("ASSETS_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("ASSETS_BUCKET environment variable must be set")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return gcp.NewObjectStore(client, bucket)
}

// ipfsStorage adapts the IPFS client to the DistributedStorage port.
type ipfsStorage struct {
	client *ipfs.Client
}

func (s ipfsStorage) Publish(ctx context.Context, data []byte, filename string) (*PublishReceipt, error) {
	receipt, err := s.client.Publish(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	return &PublishReceipt{
		NetworkHash: receipt.NetworkHash,
		SizeBytes:   receipt.SizeBytes,
		GatewayURL:  receipt.GatewayURL,
	}, nil
}

// newDistributedFromEnv returns nil when no IPFS endpoint is configured; the
// services treat that as the stage being unavailable.
func newDistributedFromEnv() (DistributedStorage, error) {
	apiURL := gcp.GetEnv("IPFS_API_URL", "")
	if apiURL == "" {
		return nil, nil
	}
	client, err := ipfs.NewClient(apiURL, gcp.GetEnv("IPFS_GATEWAY_URL", ""), gcp.GetEnv("IPFS_AUTH_TOKEN", ""))
	if err != nil {
		return nil, err
	}
	return ipfsStorage{client: client}, nil
}

func newLedgerFromEnv() (Ledger, error) {
	baseURL := gcp.GetEnv("LEDGER_RELAY_URL", "")
	if baseURL == "" {
		return nil, nil
	}
	client, err := ledger.NewClient(baseURL, gcp.GetEnv("LEDGER_API_KEY", ""))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newWorkflowFromEnv(ctx context.Context) (WorkflowTrigger, error) {
	workflowID := gcp.GetEnv("WORKFLOW_ID", "")
	if workflowID == "" {
		return nil, nil
	}
	trigger, err := gcp.NewWorkflowTrigger(ctx,
		gcp.GetEnv("PROJECT_ID", ""),
		gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		workflowID,
	)
	if err != nil {
		return nil, err
	}
	return trigger, nil
}

// NewProtectorFromEnv wires the protection pipeline for a function
// deployment.
func NewProtectorFromEnv(ctx context.Context) (*Protector, error) {
	cat, err := newCatalogFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := newObjectStoreFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	distributed, err := newDistributedFromEnv()
	if err != nil {
		return nil, err
	}
	ledgerClient, err := newLedgerFromEnv()
	if err != nil {
		return nil, err
	}
	workflow, err := newWorkflowFromEnv(ctx)
	if err != nil {
		return nil, err
	}

	cfg := ProtectorConfig{}
	if raw := gcp.GetEnv("MAX_UPLOAD_BYTES", ""); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: %w", raw, err)
		}
		cfg.MaxUploadBytes = limit
	}
	if raw := gcp.GetEnv("ALLOWED_CONTENT_TYPES", ""); raw != "" {
		for _, ct := range strings.Split(raw, ",") {
			if ct = strings.TrimSpace(ct); ct != "" {
				cfg.AllowedContentTypes = append(cfg.AllowedContentTypes, ct)
			}
		}
	}

	return NewProtector(cfg, cat, objects, distributed, ledgerClient, ContextSubjectProvider{}, workflow)
}

// NewIssuerFromEnv wires the certificate issuer for a function deployment.
func NewIssuerFromEnv(ctx context.Context) (*Issuer, error) {
	cat, err := newCatalogFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := newObjectStoreFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	distributed, err := newDistributedFromEnv()
	if err != nil {
		return nil, err
	}
	baseURL := gcp.GetEnv("VERIFICATION_BASE_URL", "")
	if baseURL == "" {
		return nil, fmt.Errorf("VERIFICATION_BASE_URL environment variable must be set")
	}
	return NewIssuer(IssuerConfig{VerificationBaseURL: baseURL}, cat, objects, distributed, ContextSubjectProvider{})
}

// NewRevokerFromEnv wires the revocation flow for a function deployment.
func NewRevokerFromEnv(ctx context.Context) (*Revoker, error) {
	cat, err := newCatalogFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return NewRevoker(cat, ContextSubjectProvider{})
}
