package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/joho/godotenv"

	"github.com/brightpath-housing/intake/internal/models"
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

	// Local development convenience; deployed functions get real env vars.
	_ = godotenv.Load()

	functions.HTTP("HandleSubmissionWebhook", handleSubmissionWebhook)
}

// main is required by the Go Functions Framework.
func main() {}

// handleSubmissionWebhook receives one pushed form submission. Unparseable
// JSON and a missing submission or form ID are the only bare HTTP errors;
// everything else, malformed answer entries included, comes back as a
// structured result.
func handleSubmissionWebhook(w http.ResponseWriter, r *http.Request) {
	var req models.WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode webhook body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	sub, err := req.Submission()
	if err != nil {
		slog.Error("Could not decode webhook answers", "error", err)
		writeJSON(w, models.WebhookResponse{
			Success:   false,
			Error:     "malformed answers: " + err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	once.Do(func() {
		serviceInstance, initErr = services.NewIntakeService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	outcome, err := serviceInstance.Webhook.Process(r.Context(), sub)
	if err != nil {
		// Missing submissionID/formID is the one fail-fast case.
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, models.WebhookResponse{
		Success:   outcome.Status != services.OutcomeError,
		Result:    outcome,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
