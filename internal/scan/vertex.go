package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const scorerSystemPrompt = "You are a content-piracy risk analyst. Given metadata about a protected digital asset, estimate how exposed it is to unauthorized redistribution. You must output your response as a valid JSON object."

const scorerUserPrompt = `Analyze the following asset metadata and produce a risk assessment.

Rules:
1. Output a single JSON object with exactly two keys:
   - "riskScore": an integer from 0 to 100, where 100 means maximum piracy exposure.
   - "findings": an array of short strings, each naming one concrete observation that influenced the score.
2. Popular media types (video, audio, images) are more exposed than documents.
3. Assets without a ledger anchor or distributed-storage copy are harder to prove ownership of, which raises exposure.
4. Do not include any text before or after the JSON object.

Asset metadata:
`

// VertexScorer scores assets with a Vertex AI generative model configured
// for deterministic JSON output.
type VertexScorer struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexScorer creates a scorer backed by the given project's Vertex AI
// endpoint.
func NewVertexScorer(ctx context.Context, projectID, region string) (*VertexScorer, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexScorer: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel("gemini-1.5-pro")
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(scorerSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		// Force JSON output. This is a critical setting for this model.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexScorer{model: model, baseClient: baseClient}, nil
}

func (s *VertexScorer) Score(ctx context.Context, asset AssetDescriptor) (*RiskReport, error) {
	assetJSON, err := json.Marshal(asset)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal asset descriptor: %w", err)
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(scorerUserPrompt+string(assetJSON)))
	if err != nil {
		return nil, fmt.Errorf("model.GenerateContent: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("model returned no candidates")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("model returned a non-text part")
	}

	var report RiskReport
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(text))), &report); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	if report.RiskScore < 0 {
		report.RiskScore = 0
	}
	if report.RiskScore > 100 {
		report.RiskScore = 100
	}
	return &report, nil
}

func (s *VertexScorer) Close() error {
	if s.baseClient != nil {
		return s.baseClient.Close()
	}
	return nil
}
