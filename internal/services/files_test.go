package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/brightpath-housing/intake/internal/models"
)

// fakeBlobStore records uploads in memory.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failAll bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(_ context.Context, objectName string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return fmt.Errorf("bucket unavailable")
	}
	s.objects[objectName] = data
	return nil
}

func fileSubmission(urls ...string) models.Submission {
	return models.Submission{
		FormID:       "form-1",
		SubmissionID: "sub-1",
		Answers: models.AnswerBag{
			{Key: "9", Label: "Upload supporting documents", Value: models.AnswerValue{Kind: models.KindFiles, Files: urls}},
		},
	}
}

func TestFilePipelineIndependentFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "not really a pdf")
	}))
	defer server.Close()

	blob := newFakeBlobStore()
	store := newFakeEntityStore()
	p := NewFilePipeline(server.Client(), blob, store, 2)

	sub := fileSubmission(
		server.URL+"/uploads/ndis_plan.pdf",
		server.URL+"/uploads/broken.pdf",
		server.URL+"/uploads/payslip_march.pdf",
	)
	res := p.Process(context.Background(), sub, models.EntityParticipant, models.EntityParticipant, "id-1", "webhook")

	if res.Uploaded != 2 {
		t.Errorf("expected 2 uploads but got %d", res.Uploaded)
	}
	if res.Failed != 1 {
		t.Errorf("expected 1 failure but got %d", res.Failed)
	}
	if len(blob.objects) != 2 {
		t.Errorf("expected 2 stored objects, got %d", len(blob.objects))
	}
	if len(store.assets) != 2 {
		t.Fatalf("expected 2 asset records, got %d", len(store.assets))
	}
	for _, asset := range store.assets {
		if asset.EntityID != "id-1" || asset.Source != "webhook" {
			t.Errorf("asset misattributed: %+v", asset)
		}
		if asset.SourceSubmissionID != "sub-1" || asset.SourceFormID != "form-1" {
			t.Errorf("asset missing provenance: %+v", asset)
		}
		if !strings.HasPrefix(asset.StoragePath, "participant/id-1/") {
			t.Errorf("unexpected storage path %q", asset.StoragePath)
		}
	}
}

func TestFilePipelineUploadFailureSkipsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "content")
	}))
	defer server.Close()

	blob := newFakeBlobStore()
	blob.failAll = true
	store := newFakeEntityStore()
	p := NewFilePipeline(server.Client(), blob, store, 1)

	res := p.Process(context.Background(), fileSubmission(server.URL+"/uploads/a.pdf"), models.EntityLandlord, models.EntityLandlord, "id-9", "historical_batch")
	if res.Uploaded != 0 || res.Failed != 1 {
		t.Errorf("expected 0 uploaded / 1 failed, got %+v", res)
	}
	if len(store.assets) != 0 {
		t.Errorf("expected no asset record after failed upload, got %d", len(store.assets))
	}
}

func TestFilePipelineNoFiles(t *testing.T) {
	p := NewFilePipeline(nil, newFakeBlobStore(), newFakeEntityStore(), 2)
	sub := models.Submission{FormID: "f", SubmissionID: "s", Answers: models.AnswerBag{
		textAnswer("1", "Full Name", "Sam Someone"),
	}}
	res := p.Process(context.Background(), sub, models.EntityParticipant, models.EntityParticipant, "id-1", "webhook")
	if res.Uploaded != 0 || res.Failed != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		filename string
		formType models.EntityType
		want     string
	}{
		// Single-purpose forms bypass filename inspection entirely.
		{"whatever.xyz", models.EntityLandlord, "lease_agreement"},
		{"ndis_plan.pdf", models.EntityInvestor, "income_proof"},

		{"rental_agreement.pdf", models.EntityParticipant, "lease_agreement"},
		{"my_ndis_plan_2024.pdf", models.EntityParticipant, "ndis_plan"},
		{"drivers_licence.jpg", models.EntityParticipant, "participant_id"},
		{"passport_scan.tiff", models.EntityParticipant, "participant_id"},
		{"payslip_march.pdf", models.EntityParticipant, "income_proof"},
		{"fire_safety_certificate.pdf", models.EntityParticipant, "compliance_certificate"},
		{"front_of_house.jpg", models.EntityParticipant, "property_photo"},
		{"floorplan.pdf", models.EntityProperty, "floor_plan"},
		{"notes.txt", models.EntityParticipant, "other"},

		// "id" only matches as a whole word, never inside another one.
		{"id_scan.pdf", models.EntityParticipant, "participant_id"},
		{"holiday_photo.jpg", models.EntityParticipant, "property_photo"},
		{"video.mp4", models.EntityParticipant, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Categorize(tt.filename, tt.formType); got != tt.want {
				t.Errorf("Categorize(%q, %q) = %q, want %q", tt.filename, tt.formType, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NDIS Plan (final).pdf", "NDIS_Plan_final_.pdf"},
		{"normal-file_1.pdf", "normal-file_1.pdf"},
		{"///", "file"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://files.example.com/uploads/ndis_plan.pdf", "ndis_plan.pdf"},
		{"https://files.example.com/uploads/my%20plan.pdf", "my plan.pdf"},
		{"https://files.example.com/", "file"},
	}
	for _, tt := range tests {
		if got := filenameFromURL(tt.in); got != tt.want {
			t.Errorf("filenameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
