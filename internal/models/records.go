package models

import "time"

// ParticipantRecord is the structured result of extracting a participant
// submission. Only Name, NDISNumber and Email gate whether the extraction
// was useful; everything else is best-effort.
type ParticipantRecord struct {
	Name               string
	Email              string
	NDISNumber         string
	Age                string
	DisabilityCategory string
	SupportLevel       string
	CurrentHousingType string
	HousingPreferences []string
}

// LandlordRecord is the structured result of extracting a landlord
// submission. FullName and Email are both required before the record may be
// persisted; the gate is enforced at the resolver, not here.
type LandlordRecord struct {
	FullName           string
	Email              string
	Phone              string
	BusinessName       string
	ABN                string
	Address            string
	NDISRegistered     bool
	RegistrationNumber string
	BankDetails        string
}

// InvestorRecord is the structured result of extracting an investor
// submission. FullName and Email are required for persistence.
type InvestorRecord struct {
	FullName               string
	Email                  string
	Phone                  string
	AvailableCapital       string
	PreferredPropertyTypes []string
	PreferredLocations     []string
	RiskTolerance          string
}

// Extraction pairs an extracted record with the form type that routes it to
// the right resolver. Exactly one of the record pointers is set.
type Extraction struct {
	FormType    EntityType
	Participant *ParticipantRecord
	Landlord    *LandlordRecord
	Investor    *InvestorRecord
}

// FileAsset is the metadata record written for each successfully downloaded
// and uploaded file. Created once, never mutated.
type FileAsset struct {
	SourceURL                string    `firestore:"sourceUrl"`
	Filename                 string    `firestore:"filename"`
	ByteSize                 int64     `firestore:"byteSize"`
	MimeType                 string    `firestore:"mimeType"`
	Category                 string    `firestore:"category"`
	StoragePath              string    `firestore:"storagePath"`
	EntityType               string    `firestore:"entityType"`
	EntityID                 string    `firestore:"entityId"`
	SourceSubmissionID       string    `firestore:"sourceSubmissionId"`
	SourceFormID             string    `firestore:"sourceFormId"`
	PageCount                int       `firestore:"pageCount,omitempty"`
	CategorizationConfidence float64   `firestore:"categorizationConfidence"`
	Processed                bool      `firestore:"processed"`
	Source                   string    `firestore:"source"`
	CreatedAt                time.Time `firestore:"createdAt"`
}

// ResolveAction tags the outcome of an upsert.
type ResolveAction string

const (
	ActionCreated ResolveAction = "created"
	ActionUpdated ResolveAction = "updated"
	ActionSkipped ResolveAction = "skipped"
)

// ResolveOutcome is what the resolver hands back so callers can aggregate
// counts without re-deriving them.
type ResolveOutcome struct {
	Action ResolveAction
	ID     string
	Reason string
}

// ItemOutcome records what happened to one submission during a batch run,
// with enough context to replay it later.
type ItemOutcome struct {
	SubmissionID string `json:"submission_id"`
	FormID       string `json:"form_id"`
	EntityType   string `json:"entity_type"`
	Stage        string `json:"stage,omitempty"`
	Action       string `json:"action"`
	EntityID     string `json:"entity_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ProcessingResult aggregates one batch run. It is created at run start,
// mutated only by the run's own goroutine, and returned at run end.
type ProcessingResult struct {
	Created       int           `json:"created"`
	Updated       int           `json:"updated"`
	Skipped       int           `json:"skipped"`
	Errors        int           `json:"errors"`
	FilesUploaded int           `json:"files_uploaded"`
	Items         []ItemOutcome `json:"items"`
}

// Record merges one submission's outcome into the run totals.
func (r *ProcessingResult) Record(item ItemOutcome) {
	switch ResolveAction(item.Action) {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionSkipped:
		r.Skipped++
	}
	if item.Error != "" {
		r.Errors++
	}
	r.Items = append(r.Items, item)
}
