package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/brightpath-housing/intake/internal/config"
	"github.com/brightpath-housing/intake/internal/formsapi"
	"github.com/brightpath-housing/intake/internal/gcp"
	"github.com/brightpath-housing/intake/internal/models"
)

// Administrative actions accepted by the bulk trigger.
const (
	ActionExtractParticipants = "extract_participants"
	ActionExtractLandlords    = "extract_landlords"
	ActionExtractInvestors    = "extract_investors"
	ActionProcessHistorical   = "process_historical"
	ActionRegisterWebhooks    = "register_webhooks"
	ActionReconcileBlobs      = "reconcile_blobs"
)

// WebhookRegistrar registers the deployed webhook URL with a form.
type WebhookRegistrar interface {
	RegisterWebhook(ctx context.Context, formID, webhookURL string) error
}

// IntakeService bundles every pipeline stage behind the two entry points.
// Each Cloud Function constructs it once via sync.Once.
type IntakeService struct {
	Config     *config.Config
	Registry   *config.FormRegistry
	Webhook    *WebhookHandler
	Runner     *Runner
	Reconciler *Reconciler

	registrar WebhookRegistrar
}

// NewIntakeService loads configuration from the environment and wires the
// full pipeline over real GCP clients and the forms provider.
func NewIntakeService(ctx context.Context) (*IntakeService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	registry, err := config.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	store := gcp.NewFirestoreStore(fsClient, map[models.EntityType]string{
		models.EntityParticipant: cfg.ParticipantsCollection,
		models.EntityLandlord:    cfg.LandlordsCollection,
		models.EntityInvestor:    cfg.InvestorsCollection,
	}, cfg.FileAssetsCollection)

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	blobs := gcp.NewGCSBlobStore(storageClient, cfg.AssetsBucket)

	apiClient := formsapi.NewClient(cfg.FormsAPIBaseURL, cfg.FormsAPIKey, &http.Client{
		Timeout: cfg.APITimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	})

	var handoff Handoff
	if cfg.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			return nil, err
		}
		handoff = trigger
	}

	classifier := NewClassifier(registry)
	extractor := NewExtractor()
	resolver := NewResolver(store)
	files := NewFilePipeline(&http.Client{Timeout: cfg.DownloadTimeout}, blobs, store, cfg.FileWorkers)
	formPacer := rate.NewLimiter(rate.Every(500*time.Millisecond), 1)

	svc := &IntakeService{
		Config:     cfg,
		Registry:   registry,
		Webhook:    NewWebhookHandler(classifier, extractor, resolver, files),
		Runner:     NewRunner(apiClient, classifier, extractor, resolver, files, handoff, formPacer, 1000),
		Reconciler: NewReconciler(blobs, store, cfg.ReconcileGrace),
		registrar:  apiClient,
	}
	slog.Info("Intake service initialized.", "projectId", cfg.ProjectID, "bucket", cfg.AssetsBucket, "forms", len(registry.Forms))
	return svc, nil
}

// RunAction dispatches one administrative action. Omitted formIDs fall back
// to the registry's per-type form lists.
func (s *IntakeService) RunAction(ctx context.Context, action string, formIDs []string) (interface{}, error) {
	switch action {
	case ActionExtractParticipants:
		return s.Runner.Run(ctx, s.formsFor(models.EntityParticipant, formIDs))
	case ActionExtractLandlords:
		return s.Runner.Run(ctx, s.formsFor(models.EntityLandlord, formIDs))
	case ActionExtractInvestors:
		return s.Runner.Run(ctx, s.formsFor(models.EntityInvestor, formIDs))
	case ActionProcessHistorical:
		if len(formIDs) == 0 {
			formIDs = s.Registry.AllForms()
		}
		return s.Runner.Run(ctx, formIDs)
	case ActionRegisterWebhooks:
		return s.registerWebhooks(ctx, formIDs)
	case ActionReconcileBlobs:
		return s.Reconciler.Sweep(ctx)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

func (s *IntakeService) formsFor(et models.EntityType, override []string) []string {
	if len(override) > 0 {
		return override
	}
	return s.Registry.FormsOf(et)
}

// RegistrationResult summarizes a register_webhooks action.
type RegistrationResult struct {
	Registered int      `json:"registered"`
	Failed     []string `json:"failed,omitempty"`
}

func (s *IntakeService) registerWebhooks(ctx context.Context, formIDs []string) (*RegistrationResult, error) {
	if s.Config.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL must be set to register webhooks")
	}
	if len(formIDs) == 0 {
		formIDs = s.Registry.AllForms()
	}
	result := &RegistrationResult{}
	for _, formID := range formIDs {
		if err := s.registrar.RegisterWebhook(ctx, formID, s.Config.WebhookURL); err != nil {
			slog.Error("Webhook registration failed, continuing.", "formId", formID, "error", err)
			result.Failed = append(result.Failed, formID)
			continue
		}
		result.Registered++
	}
	return result, nil
}
