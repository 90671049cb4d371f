package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/joho/godotenv"

	"github.com/brightpath-housing/intake/internal/services"
)

var (
	serviceInstance *services.IntakeService
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	functions.CloudEvent("ReconcileBlob", reconcileBlob)
}

// main is required by the Go Functions Framework.
func main() {}

// gcsEvent is the payload of a storage object-finalized event.
type gcsEvent struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	TimeCreated time.Time `json:"timeCreated"`
}

// reconcileBlob verifies that a finalized blob has its FileAsset metadata
// record, flagging the orphans a crash between upload and metadata write
// leaves behind.
func reconcileBlob(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		serviceInstance, initErr = services.NewIntakeService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event gcsEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	orphan, err := serviceInstance.Reconciler.CheckObject(ctx, event.Name, event.TimeCreated)
	if err != nil {
		return err
	}
	if orphan {
		slog.Warn("Blob has no metadata record.", "bucket", event.Bucket, "object", event.Name)
	}
	return nil
}
