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
	issuerInstance *services.Issuer
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleIssueCertificate", handleIssueCertificate)
}

// main is required by the Go Functions Framework.
func main() {}

func handleIssueCertificate(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		issuerInstance, initErr = services.NewIssuerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	// The API gateway validates the caller's token and forwards the subject
	// in this header; the function never sees credentials.
	ctx := services.WithSubject(r.Context(), r.Header.Get("X-Subject-Id"))

	var req models.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := issuerInstance.Issue(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrUnauthenticated):
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, models.ErrAlreadyRevoked):
		http.Error(w, "Already revoked", http.StatusConflict)
	default:
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
	}
}
