package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all environment-driven settings shared by the worker
// functions. Each entry point loads it once during initialization.
type Config struct {
	ProjectID string

	// Firestore
	ParticipantsCollection string
	LandlordsCollection    string
	InvestorsCollection    string
	FileAssetsCollection   string

	// Storage
	AssetsBucket string

	// Forms provider
	FormsAPIBaseURL string
	FormsAPIKey     string
	WebhookURL      string

	// Form registry file; empty means built-in defaults.
	RegistryPath string

	// Optional post-run workflow handoff.
	WorkflowID       string
	WorkflowLocation string

	// Timeouts
	DownloadTimeout time.Duration
	APITimeout      time.Duration

	// Bounded parallelism for per-submission file transfers.
	FileWorkers int

	// Grace period before an unindexed blob counts as orphaned.
	ReconcileGrace time.Duration
}

// Load reads configuration from the environment and validates the required
// settings.
func Load() (*Config, error) {
	cfg := &Config{
		ProjectID:              GetEnv("GCP_PROJECT", os.Getenv("PROJECT_ID")),
		ParticipantsCollection: GetEnv("PARTICIPANTS_COLLECTION", "participants"),
		LandlordsCollection:    GetEnv("LANDLORDS_COLLECTION", "landlords"),
		InvestorsCollection:    GetEnv("INVESTORS_COLLECTION", "investors"),
		FileAssetsCollection:   GetEnv("FILE_ASSETS_COLLECTION", "file_assets"),
		AssetsBucket:           GetEnv("ASSETS_BUCKET", ""),
		FormsAPIBaseURL:        GetEnv("FORMS_API_BASE_URL", "https://api.jotform.com"),
		FormsAPIKey:            GetEnv("FORMS_API_KEY", ""),
		WebhookURL:             GetEnv("WEBHOOK_URL", ""),
		RegistryPath:           GetEnv("FORM_REGISTRY_PATH", ""),
		WorkflowID:             GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:       GetEnv("WORKFLOW_LOCATION", "us-central1"),
		DownloadTimeout:        getEnvDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
		APITimeout:             getEnvDuration("API_TIMEOUT", 10*time.Second),
		FileWorkers:            getEnvInt("FILE_WORKERS", 3),
		ReconcileGrace:         getEnvDuration("RECONCILE_GRACE", 10*time.Minute),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GCP_PROJECT environment variable must be set")
	}
	if c.AssetsBucket == "" {
		return fmt.Errorf("ASSETS_BUCKET environment variable must be set")
	}
	if c.FormsAPIKey == "" {
		return fmt.Errorf("FORMS_API_KEY environment variable must be set")
	}
	return nil
}

// GetEnv is a helper to read an environment variable or return a default
// value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
