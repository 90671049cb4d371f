package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brightpath-housing/intake/internal/models"
)

// EntityStore is the durable directory of entities. Implementations must
// support exact lookups and a case-insensitive "name contains" match.
type EntityStore interface {
	FindByField(ctx context.Context, et models.EntityType, field, value string) (string, bool, error)
	FindByFields(ctx context.Context, et models.EntityType, fields map[string]string) (string, bool, error)
	FindByNameContains(ctx context.Context, et models.EntityType, name string) (string, bool, error)
	Insert(ctx context.Context, et models.EntityType, rec map[string]interface{}) (string, error)
	Update(ctx context.Context, et models.EntityType, id string, partial map[string]interface{}) error
}

// ResolveOptions control a single resolution.
type ResolveOptions struct {
	// AllowCreate permits inserting a new entity when no match strategy
	// hits. The webhook path disables it for participants: webhook
	// submissions only attach to known participants.
	AllowCreate bool
	// Provenance is recorded on created entities so a record can always be
	// traced back to its source submission.
	Provenance string
}

// Resolver matches extracted records against the entity store and merges or
// creates. Updates follow merge-not-replace: an empty extracted field never
// erases existing data, which is what makes reprocessing idempotent.
type Resolver struct {
	store EntityStore
}

// NewResolver builds a resolver over an entity store.
func NewResolver(store EntityStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve routes an extraction to the matching per-type upsert. It returns
// ErrNoMatch only when creation is disallowed and no strategy matched.
func (r *Resolver) Resolve(ctx context.Context, ext models.Extraction, opts ResolveOptions) (models.ResolveOutcome, error) {
	switch {
	case ext.Landlord != nil:
		return r.resolveLandlord(ctx, ext.Landlord, opts)
	case ext.Investor != nil:
		return r.resolveInvestor(ctx, ext.Investor, opts)
	case ext.Participant != nil:
		return r.resolveParticipant(ctx, ext.Participant, opts)
	}
	return models.ResolveOutcome{Action: models.ActionSkipped, Reason: "empty extraction"}, nil
}

func (r *Resolver) resolveParticipant(ctx context.Context, rec *models.ParticipantRecord, opts ResolveOptions) (models.ResolveOutcome, error) {
	if rec.Name == "" && rec.NDISNumber == "" && rec.Email == "" {
		return models.ResolveOutcome{Action: models.ActionSkipped, Reason: "no name, NDIS number or email extracted"}, nil
	}

	// Match strategies, in order: NDIS number exact, then fuzzy name.
	var id string
	var found bool
	var err error
	if rec.NDISNumber != "" {
		id, found, err = r.store.FindByField(ctx, models.EntityParticipant, "ndisNumber", rec.NDISNumber)
		if err != nil {
			return models.ResolveOutcome{}, err
		}
	}
	if !found && rec.Name != "" {
		id, found, err = r.store.FindByNameContains(ctx, models.EntityParticipant, rec.Name)
		if err != nil {
			return models.ResolveOutcome{}, err
		}
	}

	partial := map[string]interface{}{}
	putNonEmpty(partial, "name", rec.Name)
	putNonEmpty(partial, "ndisNumber", rec.NDISNumber)
	putNonEmpty(partial, "email", rec.Email)
	putNonEmpty(partial, "age", rec.Age)
	putNonEmpty(partial, "disabilityCategory", rec.DisabilityCategory)
	putNonEmpty(partial, "supportLevel", rec.SupportLevel)
	putNonEmpty(partial, "currentHousingType", rec.CurrentHousingType)
	putNonEmpty(partial, "housingPreferences", strings.Join(rec.HousingPreferences, "\n"))

	if found {
		return r.update(ctx, models.EntityParticipant, id, partial)
	}
	if !opts.AllowCreate {
		return models.ResolveOutcome{}, ErrNoMatch
	}

	// Defaults for fields the form didn't cover.
	if partial["supportLevel"] == nil {
		partial["supportLevel"] = "Medium"
	}
	partial["housingStatus"] = "Seeking SDA"
	partial["participantStatus"] = "pending"
	return r.create(ctx, models.EntityParticipant, partial, opts.Provenance)
}

func (r *Resolver) resolveLandlord(ctx context.Context, rec *models.LandlordRecord, opts ResolveOptions) (models.ResolveOutcome, error) {
	if rec.FullName == "" || rec.Email == "" {
		return models.ResolveOutcome{Action: models.ActionSkipped, Reason: "landlord requires both full name and email"}, nil
	}

	// Email exact, then (name, ABN) exact.
	id, found, err := r.store.FindByField(ctx, models.EntityLandlord, "email", rec.Email)
	if err != nil {
		return models.ResolveOutcome{}, err
	}
	if !found && rec.ABN != "" {
		id, found, err = r.store.FindByFields(ctx, models.EntityLandlord, map[string]string{
			"fullName": rec.FullName,
			"abn":      rec.ABN,
		})
		if err != nil {
			return models.ResolveOutcome{}, err
		}
	}

	partial := map[string]interface{}{}
	putNonEmpty(partial, "fullName", rec.FullName)
	putNonEmpty(partial, "email", rec.Email)
	putNonEmpty(partial, "phone", rec.Phone)
	putNonEmpty(partial, "businessName", rec.BusinessName)
	putNonEmpty(partial, "abn", rec.ABN)
	putNonEmpty(partial, "address", rec.Address)
	putNonEmpty(partial, "registrationNumber", rec.RegistrationNumber)
	putNonEmpty(partial, "bankDetails", rec.BankDetails)
	if rec.NDISRegistered {
		partial["ndisRegistered"] = true
	}

	if found {
		return r.update(ctx, models.EntityLandlord, id, partial)
	}
	if !opts.AllowCreate {
		return models.ResolveOutcome{}, ErrNoMatch
	}
	if partial["ndisRegistered"] == nil {
		partial["ndisRegistered"] = rec.NDISRegistered
	}
	return r.create(ctx, models.EntityLandlord, partial, opts.Provenance)
}

func (r *Resolver) resolveInvestor(ctx context.Context, rec *models.InvestorRecord, opts ResolveOptions) (models.ResolveOutcome, error) {
	if rec.FullName == "" || rec.Email == "" {
		return models.ResolveOutcome{Action: models.ActionSkipped, Reason: "investor requires both full name and email"}, nil
	}

	// Email exact only.
	id, found, err := r.store.FindByField(ctx, models.EntityInvestor, "email", rec.Email)
	if err != nil {
		return models.ResolveOutcome{}, err
	}

	partial := map[string]interface{}{}
	putNonEmpty(partial, "fullName", rec.FullName)
	putNonEmpty(partial, "email", rec.Email)
	putNonEmpty(partial, "phone", rec.Phone)
	putNonEmpty(partial, "availableCapital", rec.AvailableCapital)
	putNonEmpty(partial, "riskTolerance", rec.RiskTolerance)
	if len(rec.PreferredPropertyTypes) > 0 {
		partial["preferredPropertyTypes"] = rec.PreferredPropertyTypes
	}
	if len(rec.PreferredLocations) > 0 {
		partial["preferredLocations"] = rec.PreferredLocations
	}

	if found {
		return r.update(ctx, models.EntityInvestor, id, partial)
	}
	if !opts.AllowCreate {
		return models.ResolveOutcome{}, ErrNoMatch
	}
	if partial["preferredPropertyTypes"] == nil {
		partial["preferredPropertyTypes"] = []string{"apartment", "villa", "house"}
	}
	return r.create(ctx, models.EntityInvestor, partial, opts.Provenance)
}

func (r *Resolver) create(ctx context.Context, et models.EntityType, rec map[string]interface{}, provenance string) (models.ResolveOutcome, error) {
	if provenance != "" {
		rec["notes"] = provenance
	}
	rec["createdAt"] = time.Now().UTC()
	id, err := r.store.Insert(ctx, et, rec)
	if err != nil {
		return models.ResolveOutcome{}, fmt.Errorf("failed to create %s: %w", et, err)
	}
	slog.Info("Created entity.", "entityType", et, "entityId", id)
	return models.ResolveOutcome{Action: models.ActionCreated, ID: id}, nil
}

func (r *Resolver) update(ctx context.Context, et models.EntityType, id string, partial map[string]interface{}) (models.ResolveOutcome, error) {
	partial["updatedAt"] = time.Now().UTC()
	if err := r.store.Update(ctx, et, id, partial); err != nil {
		return models.ResolveOutcome{}, fmt.Errorf("failed to update %s %s: %w", et, id, err)
	}
	slog.Info("Updated entity.", "entityType", et, "entityId", id)
	return models.ResolveOutcome{Action: models.ActionUpdated, ID: id}, nil
}

// putNonEmpty adds the field only when the extracted value is non-empty, so
// a sparse re-submission never regresses an existing record.
func putNonEmpty(rec map[string]interface{}, field, value string) {
	if strings.TrimSpace(value) != "" {
		rec[field] = value
	}
}
