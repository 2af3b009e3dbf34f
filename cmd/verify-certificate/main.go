package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/chainproof-io/chainproof/internal/services"
)

var (
	issuerInstance *services.Issuer
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleVerifyCertificate", handleVerifyCertificate)
}

// main is required by the Go Functions Framework.
func main() {}

// handleVerifyCertificate resolves GET /<certificateId>. Verification is
// public: no subject header is required, anyone holding a certificate can
// check it.
func handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		issuerInstance, initErr = services.NewIssuerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	certificateID := strings.Trim(r.URL.Path, "/")
	if certificateID == "" {
		http.Error(w, "Bad Request: missing certificate id", http.StatusBadRequest)
		return
	}

	res, err := issuerInstance.Verify(r.Context(), certificateID)
	if err != nil {
		slog.Error("Verification lookup failed", "certificateId", certificateID, "error", err)
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
