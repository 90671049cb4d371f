package services

import (
	"testing"

	"github.com/brightpath-housing/intake/internal/config"
	"github.com/brightpath-housing/intake/internal/models"
)

func testRegistry(t *testing.T) *config.FormRegistry {
	t.Helper()
	reg, err := config.ParseRegistry([]byte(`
forms:
  "form-participant": participant
  "form-landlord": landlord
  "form-investor": investor
  "form-property": property
`))
	if err != nil {
		t.Fatalf("failed to parse fixture registry: %v", err)
	}
	return reg
}

func TestClassifyRegistryLookup(t *testing.T) {
	c := NewClassifier(testRegistry(t))

	tests := []struct {
		formID string
		want   models.EntityType
	}{
		{"form-participant", models.EntityParticipant},
		{"form-landlord", models.EntityLandlord},
		{"form-investor", models.EntityInvestor},
		{"form-property", models.EntityProperty},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.formID, nil); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.formID, got, tt.want)
		}
	}
}

func TestClassifyKeywordFallback(t *testing.T) {
	c := NewClassifier(testRegistry(t))

	tests := []struct {
		name string
		bag  models.AnswerBag
		want models.EntityType
	}{
		{
			"landlord keyword in label",
			models.AnswerBag{textAnswer("1", "Landlord Details", "something")},
			models.EntityLandlord,
		},
		{
			"property owner keyword in value",
			models.AnswerBag{textAnswer("1", "Role", "Property Owner")},
			models.EntityLandlord,
		},
		{
			"investment keyword",
			models.AnswerBag{textAnswer("1", "Reason for contact", "Investment opportunity")},
			models.EntityInvestor,
		},
		{
			"no keywords defaults to participant",
			models.AnswerBag{textAnswer("1", "Full Name", "Sam Someone")},
			models.EntityParticipant,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify("unknown-form", tt.bag); got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

// Classification is pure: repeated calls with the same input must agree.
func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(testRegistry(t))
	bag := models.AnswerBag{textAnswer("1", "Role", "investor")}
	first := c.Classify("unknown-form", bag)
	for i := 0; i < 20; i++ {
		if got := c.Classify("unknown-form", bag); got != first {
			t.Fatalf("classification not deterministic: %q then %q", first, got)
		}
	}
}
