package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/brightpath-housing/intake/internal/models"
)

// SubmissionSource pages through historical submissions for a form. The
// forms provider client satisfies it.
type SubmissionSource interface {
	ListSubmissions(ctx context.Context, formID string, limit int) ([]models.Submission, error)
}

// Handoff receives the run summary once a historical run completes, so the
// downstream orchestration can pick it up. Optional.
type Handoff interface {
	Trigger(ctx context.Context, payload interface{}) error
}

// Runner drives the historical/bulk ingestion: for each configured form it
// pages through every submission and runs the same classify, extract,
// resolve and file stages the webhook uses. One submission's failure is
// counted and recorded, never propagated; a full run across thousands of
// records must survive its worst items.
type Runner struct {
	source     SubmissionSource
	classifier *Classifier
	extractor  *Extractor
	resolver   *Resolver
	files      *FilePipeline
	handoff    Handoff

	// formPacer spaces the per-form fetches; the source's own limiter
	// covers individual submission calls.
	formPacer *rate.Limiter
	pageLimit int
}

// NewRunner wires a batch runner. handoff may be nil. pageLimit caps
// submissions fetched per form.
func NewRunner(source SubmissionSource, classifier *Classifier, extractor *Extractor, resolver *Resolver, files *FilePipeline, handoff Handoff, formPacer *rate.Limiter, pageLimit int) *Runner {
	if pageLimit <= 0 {
		pageLimit = 1000
	}
	return &Runner{
		source:     source,
		classifier: classifier,
		extractor:  extractor,
		resolver:   resolver,
		files:      files,
		handoff:    handoff,
		formPacer:  formPacer,
		pageLimit:  pageLimit,
	}
}

// Run processes every submission of every given form sequentially,
// aggregating one ProcessingResult. Cancellation is checked between
// submissions; on cancellation the partial result is returned along with
// the context error.
func (r *Runner) Run(ctx context.Context, formIDs []string) (*models.ProcessingResult, error) {
	result := &models.ProcessingResult{}
	for _, formID := range formIDs {
		if r.formPacer != nil {
			if err := r.formPacer.Wait(ctx); err != nil {
				return result, err
			}
		}
		subs, err := r.source.ListSubmissions(ctx, formID, r.pageLimit)
		if err != nil {
			slog.Error("Failed to list submissions, continuing with next form.", "formId", formID, "error", err)
			result.Record(models.ItemOutcome{FormID: formID, Stage: "list", Error: err.Error()})
			continue
		}
		slog.Info("Processing form.", "formId", formID, "submissions", len(subs))

		for _, sub := range subs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			r.processOne(ctx, sub, result)
		}
	}

	slog.Info("Historical run complete.",
		"created", result.Created, "updated", result.Updated,
		"skipped", result.Skipped, "errors", result.Errors,
		"filesUploaded", result.FilesUploaded)

	if r.handoff != nil {
		if err := r.handoff.Trigger(ctx, result); err != nil {
			slog.Error("Post-run workflow handoff failed.", "error", err)
		}
	}
	return result, nil
}

// processOne runs one submission through the shared stages and merges its
// outcome into the run result.
func (r *Runner) processOne(ctx context.Context, sub models.Submission, result *models.ProcessingResult) {
	formType := r.classifier.Classify(sub.FormID, sub.Answers)
	item := models.ItemOutcome{
		SubmissionID: sub.SubmissionID,
		FormID:       sub.FormID,
		EntityType:   string(formType),
	}

	ext := r.extractor.Extract(formType, sub.Answers)
	outcome, err := r.resolver.Resolve(ctx, ext, ResolveOptions{
		AllowCreate: true,
		Provenance:  provenance(sub),
	})
	if err != nil && !errors.Is(err, ErrNoMatch) {
		item.Stage = "resolve"
		item.Error = err.Error()
		result.Record(item)
		return
	}
	item.Action = string(outcome.Action)
	item.EntityID = outcome.ID

	if outcome.ID != "" {
		res := r.files.Process(ctx, sub, formType, entityTypeOf(ext), outcome.ID, "historical_batch")
		result.FilesUploaded += res.Uploaded
		result.Errors += res.Failed
	}
	result.Record(item)
}
