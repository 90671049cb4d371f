package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/brightpath-housing/intake/internal/models"
)

// FormRegistry maps known form identifiers to the entity type their
// submissions produce. It is loaded once and injected wherever a
// classification or per-type form list is needed, so tests can substitute
// fixtures.
type FormRegistry struct {
	Forms map[string]models.EntityType `yaml:"forms"`
}

// defaultRegistry covers the curated production forms. A registry file, when
// configured, replaces it entirely.
var defaultRegistry = map[string]models.EntityType{
	"240018233368047": models.EntityParticipant,
	"240018486058055": models.EntityParticipant,
	"240118247983868": models.EntityLandlord,
	"240118353660853": models.EntityLandlord,
	"240118427100840": models.EntityInvestor,
	"240119205503841": models.EntityProperty,
	"240119876203857": models.EntityInquiry,
}

// LoadRegistry reads a YAML registry from path, or returns the built-in
// defaults when path is empty.
func LoadRegistry(path string) (*FormRegistry, error) {
	if path == "" {
		forms := make(map[string]models.EntityType, len(defaultRegistry))
		for k, v := range defaultRegistry {
			forms[k] = v
		}
		return &FormRegistry{Forms: forms}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form registry %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a YAML registry document.
func ParseRegistry(data []byte) (*FormRegistry, error) {
	var reg FormRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse form registry: %w", err)
	}
	if len(reg.Forms) == 0 {
		return nil, fmt.Errorf("form registry contains no forms")
	}
	for id, et := range reg.Forms {
		switch et {
		case models.EntityParticipant, models.EntityLandlord, models.EntityInvestor,
			models.EntityProperty, models.EntityInquiry:
		default:
			return nil, fmt.Errorf("form %s: unknown entity type %q", id, et)
		}
	}
	return &reg, nil
}

// TypeOf looks up the entity type for a form identifier.
func (r *FormRegistry) TypeOf(formID string) (models.EntityType, bool) {
	et, ok := r.Forms[formID]
	return et, ok
}

// FormsOf returns the sorted form identifiers registered for one entity
// type.
func (r *FormRegistry) FormsOf(et models.EntityType) []string {
	var ids []string
	for id, t := range r.Forms {
		if t == et {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AllForms returns every registered form identifier, sorted.
func (r *FormRegistry) AllForms() []string {
	ids := make([]string, 0, len(r.Forms))
	for id := range r.Forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
