package services

import (
	"strings"

	"github.com/brightpath-housing/intake/internal/config"
	"github.com/brightpath-housing/intake/internal/models"
)

// Classifier decides which entity type a submission belongs to. It is pure:
// same form ID and answers always yield the same type, so it can be unit
// tested with fixed fixtures.
type Classifier struct {
	registry *config.FormRegistry
}

// NewClassifier builds a classifier over an injected form registry.
func NewClassifier(registry *config.FormRegistry) *Classifier {
	return &Classifier{registry: registry}
}

// keywordSets are scanned in order against the serialized answer text when
// the form is not in the registry.
var keywordSets = []struct {
	entityType models.EntityType
	keywords   []string
}{
	{models.EntityLandlord, []string{"landlord", "property owner"}},
	{models.EntityInvestor, []string{"investor", "investment"}},
}

// Classify maps a submission to an entity type: registry lookup first, then
// keyword scanning of the answer content, defaulting to participant.
func (c *Classifier) Classify(formID string, answers models.AnswerBag) models.EntityType {
	if et, ok := c.registry.TypeOf(formID); ok {
		return et
	}
	blob := answers.Serialized()
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(blob, kw) {
				return set.entityType
			}
		}
	}
	return models.EntityParticipant
}
