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

	_ = godotenv.Load()

	functions.HTTP("HandleAdminAction", handleAdminAction)
}

// main is required by the Go Functions Framework.
func main() {}

// handleAdminAction triggers a bulk extraction, webhook registration or
// reconciliation run. The caller always receives a structured result; a
// run's per-item failures live inside that result, not in the HTTP status.
func handleAdminAction(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		serviceInstance, initErr = services.NewIntakeService(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.AdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode admin request", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if req.Action == "" {
		http.Error(w, "Bad Request: action is required", http.StatusBadRequest)
		return
	}
	slog.Info("Running administrative action.", "action", req.Action, "formIds", len(req.FormIDs))

	result, err := serviceInstance.RunAction(r.Context(), req.Action, req.FormIDs)
	resp := models.AdminResponse{
		Success:   err == nil,
		Action:    req.Action,
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		slog.Error("Administrative action failed.", "action", req.Action, "error", err)
		resp.Error = err.Error()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
