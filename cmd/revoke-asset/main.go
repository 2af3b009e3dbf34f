package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/chainproof-io/chainproof/internal/models"
	"github.com/chainproof-io/chainproof/internal/services"
)

var (
	revokerInstance *services.Revoker
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleRevokeAsset", handleRevokeAsset)
}

// main is required by the Go Functions Framework.
func main() {}

func handleRevokeAsset(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		revokerInstance, initErr = services.NewRevokerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	ctx := services.WithSubject(r.Context(), r.Header.Get("X-Subject-Id"))

	var req models.RevokeAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if req.AssetID == "" {
		http.Error(w, "Bad Request: missing asset id", http.StatusBadRequest)
		return
	}

	res, err := revokerInstance.RevokeAsset(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthenticated):
			http.Error(w, "Unauthenticated", http.StatusUnauthorized)
		case errors.Is(err, models.ErrAlreadyRevoked):
			http.Error(w, "Asset is already revoked", http.StatusConflict)
		case errors.Is(err, models.ErrNotFound):
			http.Error(w, "Asset not found", http.StatusNotFound)
		default:
			http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
