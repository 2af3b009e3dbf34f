package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/chainproof-io/chainproof/internal/gcp"
	"github.com/chainproof-io/chainproof/internal/scan"
)

var (
	scorerInstance scan.RiskScorer
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleScanAsset", handleScanAsset)
}

// main is required by the Go Functions Framework.
func main() {}

func newScorer(ctx context.Context) (scan.RiskScorer, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return scan.NewVertexScorer(ctx, projectID, gcp.GetEnv("VERTEX_AI_REGION", "us-central1"))
}

func handleScanAsset(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		scorerInstance, initErr = newScorer(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var asset scan.AssetDescriptor
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	report, err := scorerInstance.Score(r.Context(), asset)
	if err != nil {
		slog.Error("Risk scoring failed", "contentHash", asset.ContentHash, "error", err)
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
