package config

import (
	"os"
	"testing"
	"time"

	"github.com/brightpath-housing/intake/internal/models"
)

func TestLoadRequiresCoreSettings(t *testing.T) {
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("PROJECT_ID", "")
	t.Setenv("ASSETS_BUCKET", "")
	t.Setenv("FORMS_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing GCP_PROJECT")
	}

	t.Setenv("GCP_PROJECT", "test-project")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing ASSETS_BUCKET")
	}

	t.Setenv("ASSETS_BUCKET", "test-bucket")
	t.Setenv("FORMS_API_KEY", "test-key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if cfg.ProjectID != "test-project" {
		t.Errorf("expected project 'test-project' but got %q", cfg.ProjectID)
	}

	// Defaults
	if cfg.ParticipantsCollection != "participants" {
		t.Errorf("expected default participants collection, got %q", cfg.ParticipantsCollection)
	}
	if cfg.DownloadTimeout != 30*time.Second {
		t.Errorf("expected default download timeout 30s, got %v", cfg.DownloadTimeout)
	}
	if cfg.FileWorkers != 3 {
		t.Errorf("expected default 3 file workers, got %d", cfg.FileWorkers)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("INTAKE_TEST_KEY", "value")
	if got := GetEnv("INTAKE_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("expected 'value' but got %q", got)
	}
	os.Unsetenv("INTAKE_TEST_KEY")
	if got := GetEnv("INTAKE_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("expected 'fallback' but got %q", got)
	}
}

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(`
forms:
  "111": participant
  "222": participant
  "333": landlord
  "444": investor
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if et, ok := reg.TypeOf("333"); !ok || et != models.EntityLandlord {
		t.Errorf("expected landlord for form 333, got %q (%v)", et, ok)
	}
	if _, ok := reg.TypeOf("999"); ok {
		t.Error("expected miss for unregistered form")
	}

	participants := reg.FormsOf(models.EntityParticipant)
	if len(participants) != 2 || participants[0] != "111" || participants[1] != "222" {
		t.Errorf("expected sorted participant forms [111 222], got %v", participants)
	}
	if all := reg.AllForms(); len(all) != 4 {
		t.Errorf("expected 4 forms, got %v", all)
	}
}

func TestParseRegistryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", `forms: {}`},
		{"unknown type", "forms:\n  \"111\": wizard"},
		{"not yaml", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRegistry([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRegistryDefaults(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(reg.Forms) == 0 {
		t.Fatal("expected built-in defaults")
	}
	if len(reg.FormsOf(models.EntityParticipant)) == 0 {
		t.Error("expected at least one default participant form")
	}
}
