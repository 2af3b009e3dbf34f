package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/chainproof-io/chainproof/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	intakeInstance *services.Intake
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes the storage
	// finalize event here.
	functions.CloudEvent("ProtectUpload", protectUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// protectUpload is the Cloud Function entry point for staged uploads.
func protectUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		intakeInstance, initErr = services.NewIntakeFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// The error is already logged with context inside Process. Returning it
	// marks the invocation as failed.
	_, err := intakeInstance.Process(ctx, gcsEvent)
	return err
}
