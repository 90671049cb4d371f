package services

import (
	"strings"

	"github.com/brightpath-housing/intake/internal/models"
)

// The extractor turns an unordered bag of labelled answers into a typed
// record. One generic engine runs an ordered rule table per entity type;
// the tables live in rules.go. Labels vary across independently authored
// forms, so predicates are deliberately permissive keyword combinations and
// the order of the rules is a significant, test-covered contract.

// LabelMatch is a case-insensitive keyword predicate over an answer label.
type LabelMatch struct {
	All  []string // every keyword must appear
	Any  []string // at least one must appear, when non-empty
	None []string // none may appear
}

// Matches evaluates the predicate against an already-lowercased label.
func (m LabelMatch) Matches(label string) bool {
	for _, kw := range m.All {
		if !strings.Contains(label, kw) {
			return false
		}
	}
	if len(m.Any) > 0 {
		hit := false
		for _, kw := range m.Any {
			if strings.Contains(label, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, kw := range m.None {
		if strings.Contains(label, kw) {
			return false
		}
	}
	return true
}

// Rule binds a label predicate to a target field. Scalar fields keep the
// first value assigned; accumulating fields collect every match in answer
// order.
type Rule struct {
	Field      string
	Match      LabelMatch
	Accumulate bool
}

// fieldSet is the untyped output of a rule pass.
type fieldSet struct {
	scalars map[string]string
	lists   map[string][]string
}

func (fs fieldSet) scalar(field string) string { return fs.scalars[field] }
func (fs fieldSet) list(field string) []string { return fs.lists[field] }
func (fs fieldSet) boolean(field string) bool  { return parseYes(fs.scalars[field]) }

// applyRules runs the rule table over every answer entry. The first rule
// whose predicate matches an entry consumes it; for scalar fields the first
// consumed value wins and later entries never overwrite it.
func applyRules(rules []Rule, bag models.AnswerBag) fieldSet {
	fs := fieldSet{
		scalars: make(map[string]string),
		lists:   make(map[string][]string),
	}
	for _, entry := range bag {
		if entry.Value.Kind == models.KindFiles {
			continue
		}
		value := entry.Value.Scalar()
		if value == "" {
			continue
		}
		label := strings.ToLower(entry.Label)
		for _, rule := range rules {
			if !rule.Match.Matches(label) {
				continue
			}
			if rule.Accumulate {
				fs.lists[rule.Field] = append(fs.lists[rule.Field], value)
			} else if fs.scalars[rule.Field] == "" {
				fs.scalars[rule.Field] = value
			}
			break
		}
	}
	return fs
}

// parseYes interprets the affirmative spellings seen on real forms.
func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "y", "registered":
		return true
	}
	return false
}

// Extractor applies the per-entity-type rule tables. It never fails: a
// record with every field empty is a valid, common outcome.
type Extractor struct{}

// NewExtractor returns the shared extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract routes to the per-type extraction and tags the result with the
// form type for the resolver.
func (e *Extractor) Extract(formType models.EntityType, bag models.AnswerBag) models.Extraction {
	switch formType {
	case models.EntityLandlord:
		rec := e.ExtractLandlord(bag)
		return models.Extraction{FormType: formType, Landlord: &rec}
	case models.EntityInvestor:
		rec := e.ExtractInvestor(bag)
		return models.Extraction{FormType: formType, Investor: &rec}
	default:
		// Property, inquiry and unknown forms carry participant details
		// when they carry anything resolvable at all.
		rec := e.ExtractParticipant(bag)
		return models.Extraction{FormType: formType, Participant: &rec}
	}
}

// ExtractParticipant mines a participant record from the answer bag.
func (e *Extractor) ExtractParticipant(bag models.AnswerBag) models.ParticipantRecord {
	fs := applyRules(participantRules, bag)
	return models.ParticipantRecord{
		Name:               fs.scalar("name"),
		Email:              fs.scalar("email"),
		NDISNumber:         fs.scalar("ndisNumber"),
		Age:                fs.scalar("age"),
		DisabilityCategory: fs.scalar("disabilityCategory"),
		SupportLevel:       fs.scalar("supportLevel"),
		CurrentHousingType: fs.scalar("currentHousingType"),
		HousingPreferences: fs.list("housingPreferences"),
	}
}

// ExtractLandlord mines a landlord record from the answer bag.
func (e *Extractor) ExtractLandlord(bag models.AnswerBag) models.LandlordRecord {
	fs := applyRules(landlordRules, bag)
	return models.LandlordRecord{
		FullName:           fs.scalar("fullName"),
		Email:              fs.scalar("email"),
		Phone:              fs.scalar("phone"),
		BusinessName:       fs.scalar("businessName"),
		ABN:                fs.scalar("abn"),
		Address:            fs.scalar("address"),
		NDISRegistered:     fs.boolean("ndisRegistered"),
		RegistrationNumber: fs.scalar("registrationNumber"),
		BankDetails:        fs.scalar("bankDetails"),
	}
}

// ExtractInvestor mines an investor record from the answer bag.
func (e *Extractor) ExtractInvestor(bag models.AnswerBag) models.InvestorRecord {
	fs := applyRules(investorRules, bag)
	return models.InvestorRecord{
		FullName:               fs.scalar("fullName"),
		Email:                  fs.scalar("email"),
		Phone:                  fs.scalar("phone"),
		AvailableCapital:       fs.scalar("availableCapital"),
		PreferredPropertyTypes: fs.list("preferredPropertyTypes"),
		PreferredLocations:     fs.list("preferredLocations"),
		RiskTolerance:          fs.scalar("riskTolerance"),
	}
}
