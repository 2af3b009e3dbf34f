// Package scan estimates piracy exposure for a protected asset. The scorer
// is an interface so the orchestrator and the scan function never depend on
// a concrete engine; the production implementation delegates to a Vertex AI
// model, and anything that returns a RiskReport can replace it.
package scan

import "context"

// AssetDescriptor is what the scorer gets to reason about. It deliberately
// excludes the raw bytes; scoring works from metadata and provenance.
type AssetDescriptor struct {
	Title            string `json:"title"`
	ContentType      string `json:"contentType"`
	SizeBytes        int64  `json:"sizeBytes"`
	ContentHash      string `json:"contentHash"`
	LedgerAnchored   bool   `json:"ledgerAnchored"`
	DistributedStore bool   `json:"distributedStore"`
}

// RiskReport is one scoring outcome. RiskScore is 0-100, higher meaning more
// exposed; Findings are human-readable observations.
type RiskReport struct {
	RiskScore int      `json:"riskScore"`
	Findings  []string `json:"findings"`
}

// RiskScorer scores one asset's piracy exposure.
type RiskScorer interface {
	Score(ctx context.Context, asset AssetDescriptor) (*RiskReport, error)
}
