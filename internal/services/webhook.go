package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brightpath-housing/intake/internal/models"
)

// Webhook terminal states.
const (
	OutcomeSuccess       = "success"
	OutcomeNoEntityMatch = "no_entity_match"
	OutcomeError         = "error"
)

// WebhookOutcome is the structured result of one webhook invocation.
type WebhookOutcome struct {
	Status        string             `json:"status"`
	EntityType    models.EntityType  `json:"entity_type"`
	Action        string             `json:"action,omitempty"`
	EntityID      string             `json:"entity_id,omitempty"`
	FilesUploaded int                `json:"files_uploaded"`
	FilesFailed   int                `json:"files_failed"`
	Message       string             `json:"message,omitempty"`
	Extracted     *models.Extraction `json:"extracted,omitempty"`
}

// WebhookHandler processes one pushed submission synchronously: classify,
// extract, resolve, then run the file pipeline against the resolved entity.
//
// Participant submissions never create new participants here; they only
// attach data and files to an already known one. A miss is the
// no_entity_match terminal state, returned with the extracted record for
// manual triage. Landlord and investor submissions may create, same as the
// batch path.
type WebhookHandler struct {
	classifier *Classifier
	extractor  *Extractor
	resolver   *Resolver
	files      *FilePipeline
}

// NewWebhookHandler wires the handler from its stages.
func NewWebhookHandler(classifier *Classifier, extractor *Extractor, resolver *Resolver, files *FilePipeline) *WebhookHandler {
	return &WebhookHandler{classifier: classifier, extractor: extractor, resolver: resolver, files: files}
}

// Process runs the single-pass state machine. The returned error is non-nil
// only for malformed input (missing submission or form ID), the one
// fail-fast case; every downstream failure comes back as an outcome.
func (h *WebhookHandler) Process(ctx context.Context, sub models.Submission) (*WebhookOutcome, error) {
	if sub.SubmissionID == "" || sub.FormID == "" {
		return nil, fmt.Errorf("submission is missing submissionID or formID")
	}
	logCtx := slog.With("submissionId", sub.SubmissionID, "formId", sub.FormID)

	formType := h.classifier.Classify(sub.FormID, sub.Answers)
	ext := h.extractor.Extract(formType, sub.Answers)
	logCtx.Info("Classified webhook submission.", "formType", formType)

	opts := ResolveOptions{
		AllowCreate: ext.Participant == nil,
		Provenance:  provenance(sub),
	}
	outcome, err := h.resolver.Resolve(ctx, ext, opts)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			logCtx.Warn("No existing entity matched webhook submission.")
			return &WebhookOutcome{
				Status:     OutcomeNoEntityMatch,
				EntityType: formType,
				Message:    "no existing entity matched; extracted data attached for manual triage",
				Extracted:  &ext,
			}, nil
		}
		logCtx.Error("Entity resolution failed.", "error", err)
		return &WebhookOutcome{Status: OutcomeError, EntityType: formType, Message: err.Error()}, nil
	}
	if outcome.Action == models.ActionSkipped {
		return &WebhookOutcome{
			Status:     OutcomeSuccess,
			EntityType: formType,
			Action:     string(outcome.Action),
			Message:    outcome.Reason,
		}, nil
	}

	res := h.files.Process(ctx, sub, formType, entityTypeOf(ext), outcome.ID, "webhook")
	return &WebhookOutcome{
		Status:        OutcomeSuccess,
		EntityType:    formType,
		Action:        string(outcome.Action),
		EntityID:      outcome.ID,
		FilesUploaded: res.Uploaded,
		FilesFailed:   res.Failed,
	}, nil
}

// entityTypeOf maps an extraction to the entity type its record persists
// as; property, inquiry and unknown forms all resolve through participants.
func entityTypeOf(ext models.Extraction) models.EntityType {
	switch {
	case ext.Landlord != nil:
		return models.EntityLandlord
	case ext.Investor != nil:
		return models.EntityInvestor
	default:
		return models.EntityParticipant
	}
}

func provenance(sub models.Submission) string {
	return fmt.Sprintf("Imported from form %s submission %s", sub.FormID, sub.SubmissionID)
}
