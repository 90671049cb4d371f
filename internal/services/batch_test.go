package services

import (
	"context"
	"testing"

	"github.com/brightpath-housing/intake/internal/formsapi"
	"github.com/brightpath-housing/intake/internal/models"
)

// fakeSource serves canned submissions per form.
type fakeSource struct {
	subs  map[string][]models.Submission
	fail  map[string]error
	calls []string
}

func (s *fakeSource) ListSubmissions(_ context.Context, formID string, _ int) ([]models.Submission, error) {
	s.calls = append(s.calls, formID)
	if err := s.fail[formID]; err != nil {
		return nil, err
	}
	return s.subs[formID], nil
}

// recordingHandoff captures the post-run payload.
type recordingHandoff struct {
	payloads []interface{}
}

func (h *recordingHandoff) Trigger(_ context.Context, payload interface{}) error {
	h.payloads = append(h.payloads, payload)
	return nil
}

func newTestRunner(t *testing.T, store *fakeEntityStore, source *fakeSource, handoff Handoff) *Runner {
	t.Helper()
	return NewRunner(
		source,
		NewClassifier(testRegistry(t)),
		NewExtractor(),
		NewResolver(store),
		NewFilePipeline(nil, newFakeBlobStore(), store, 1),
		handoff,
		nil, // no pacing in tests
		100,
	)
}

func participantSubmission(formID, subID, first, last, ndis string) models.Submission {
	return models.Submission{
		FormID:       formID,
		SubmissionID: subID,
		Answers: models.AnswerBag{
			nameAnswer("3", "NDIS Participant's Full Name", first, last),
			textAnswer("4", "NDIS Number", ndis),
		},
	}
}

func TestRunProcessesAllForms(t *testing.T) {
	store := newFakeEntityStore()
	source := &fakeSource{subs: map[string][]models.Submission{
		"form-participant": {
			participantSubmission("form-participant", "s-1", "Jessica", "Teasdale", "431187858"),
			participantSubmission("form-participant", "s-2", "Marcus", "Webb", "431187859"),
			// Same person again: must update, not duplicate.
			participantSubmission("form-participant", "s-3", "Jessica", "Teasdale", "431187858"),
			// Nothing extractable: skipped.
			{FormID: "form-participant", SubmissionID: "s-4", Answers: models.AnswerBag{
				textAnswer("1", "Comments", "hello"),
			}},
		},
		"form-landlord": {
			{FormID: "form-landlord", SubmissionID: "s-5", Answers: models.AnswerBag{
				nameAnswer("1", "Owner Full Name", "Rob", "Nguyen"),
				textAnswer("2", "Email Address", "rob@example.com"),
			}},
		},
	}}
	handoff := &recordingHandoff{}
	r := newTestRunner(t, store, source, handoff)

	result, err := r.Run(context.Background(), []string{"form-participant", "form-landlord"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Created != 3 {
		t.Errorf("expected 3 created but got %d", result.Created)
	}
	if result.Updated != 1 {
		t.Errorf("expected 1 updated but got %d", result.Updated)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped but got %d", result.Skipped)
	}
	if result.Errors != 0 {
		t.Errorf("expected no errors but got %d", result.Errors)
	}
	if len(result.Items) != 5 {
		t.Errorf("expected 5 item outcomes, got %d", len(result.Items))
	}
	if len(handoff.payloads) != 1 {
		t.Errorf("expected one handoff trigger, got %d", len(handoff.payloads))
	}
	if n := len(store.entities[models.EntityParticipant]); n != 2 {
		t.Errorf("expected 2 distinct participants, got %d", n)
	}
}

// A form that fails to list is counted and the run moves on.
func TestRunContinuesPastFailingForm(t *testing.T) {
	store := newFakeEntityStore()
	source := &fakeSource{
		subs: map[string][]models.Submission{
			"form-participant": {participantSubmission("form-participant", "s-1", "Jessica", "Teasdale", "431187858")},
		},
		fail: map[string]error{
			"form-broken": &formsapi.UpstreamError{Status: 503, Body: "unavailable"},
		},
	}
	r := newTestRunner(t, store, source, nil)

	result, err := r.Run(context.Background(), []string{"form-broken", "form-participant"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Errors != 1 {
		t.Errorf("expected 1 error but got %d", result.Errors)
	}
	if result.Created != 1 {
		t.Errorf("expected the second form to still process, got %d created", result.Created)
	}
	if len(source.calls) != 2 {
		t.Errorf("expected both forms attempted, got %v", source.calls)
	}
}

func TestRunCooperativeCancellation(t *testing.T) {
	store := newFakeEntityStore()
	var subs []models.Submission
	for i := 0; i < 50; i++ {
		subs = append(subs, participantSubmission("form-participant", "s", "Jessica", "Teasdale", "431187858"))
	}
	source := &fakeSource{subs: map[string][]models.Submission{"form-participant": subs}}
	r := newTestRunner(t, store, source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := r.Run(ctx, []string{"form-participant"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(result.Items) != 0 {
		t.Errorf("expected no items processed after cancellation, got %d", len(result.Items))
	}
}
