package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EntityType is the record kind a submission is classified into.
type EntityType string

const (
	EntityParticipant EntityType = "participant"
	EntityLandlord    EntityType = "landlord"
	EntityInvestor    EntityType = "investor"
	EntityProperty    EntityType = "property"
	EntityInquiry     EntityType = "inquiry"
)

// AnswerKind discriminates the closed set of answer value shapes. The
// provider delivers arbitrarily shaped JSON; we decode it exactly once, at
// ingestion, so everything downstream switches on these kinds instead of
// sniffing raw JSON.
type AnswerKind string

const (
	KindText    AnswerKind = "text"
	KindName    AnswerKind = "name"
	KindAddress AnswerKind = "address"
	KindFiles   AnswerKind = "files"
)

// StructuredName is a first/last name pair as submitted on a form.
type StructuredName struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// FullName joins the non-empty parts with a single space.
func (n StructuredName) FullName() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(n.First); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(n.Last); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// StructuredAddress is a multi-line address answer.
type StructuredAddress struct {
	Line1  string `json:"addr_line1"`
	Line2  string `json:"addr_line2"`
	City   string `json:"city"`
	State  string `json:"state"`
	Postal string `json:"postal"`
}

// String concatenates the populated address fields in order, comma separated.
func (a StructuredAddress) String() string {
	var parts []string
	for _, s := range []string{a.Line1, a.Line2, a.City, a.State, a.Postal} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// AnswerValue is the tagged union of answer shapes.
type AnswerValue struct {
	Kind    AnswerKind
	Text    string
	Name    StructuredName
	Address StructuredAddress
	Files   []string
}

// Scalar renders the value as a single trimmed string. File lists render as
// empty; they are consumed by the file pipeline, not by field extraction.
func (v AnswerValue) Scalar() string {
	switch v.Kind {
	case KindName:
		return v.Name.FullName()
	case KindAddress:
		return v.Address.String()
	case KindFiles:
		return ""
	default:
		return strings.TrimSpace(v.Text)
	}
}

// Answer is one entry of the answer bag: the form author's human label plus
// the decoded value. Labels, not keys, drive extraction.
type Answer struct {
	Key   string
	Label string
	Value AnswerValue
}

// AnswerBag holds every answer of one submission, ordered by field key for
// deterministic iteration. Order carries no meaning.
type AnswerBag []Answer

// Submission is one form response, the immutable source of truth for all
// derived records.
type Submission struct {
	FormID       string
	SubmissionID string
	Answers      AnswerBag
}

// rawAnswer mirrors the provider's per-question answer object.
type rawAnswer struct {
	Text   string          `json:"text"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
}

// DecodeAnswers converts the provider's raw answers object into an
// AnswerBag. Shape sniffing happens here and nowhere else.
func DecodeAnswers(raw map[string]json.RawMessage) (AnswerBag, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bag := make(AnswerBag, 0, len(raw))
	for _, k := range keys {
		var ra rawAnswer
		if err := json.Unmarshal(raw[k], &ra); err != nil {
			return nil, fmt.Errorf("answer %q: %w", k, err)
		}
		label := ra.Text
		if label == "" {
			label = ra.Name
		}
		if len(ra.Answer) == 0 {
			continue
		}
		bag = append(bag, Answer{Key: k, Label: label, Value: decodeValue(ra)})
	}
	return bag, nil
}

func decodeValue(ra rawAnswer) AnswerValue {
	// Structured name: object with first/last.
	var name StructuredName
	if err := json.Unmarshal(ra.Answer, &name); err == nil && name.FullName() != "" {
		return AnswerValue{Kind: KindName, Name: name}
	}

	// Structured address: object with at least one address field.
	var addr StructuredAddress
	if err := json.Unmarshal(ra.Answer, &addr); err == nil && addr.String() != "" {
		return AnswerValue{Kind: KindAddress, Address: addr}
	}

	// File list: array of URL strings, or the label says it is an upload.
	var list []string
	if err := json.Unmarshal(ra.Answer, &list); err == nil {
		if isUploadAnswer(ra, list) {
			return AnswerValue{Kind: KindFiles, Files: list}
		}
		return AnswerValue{Kind: KindText, Text: strings.Join(list, "\n")}
	}

	// Plain string.
	var s string
	if err := json.Unmarshal(ra.Answer, &s); err == nil {
		if isUploadAnswer(ra, []string{s}) {
			return AnswerValue{Kind: KindFiles, Files: []string{s}}
		}
		return AnswerValue{Kind: KindText, Text: s}
	}

	// Anything else (numbers, booleans, unknown objects) flattens to text.
	var any interface{}
	if err := json.Unmarshal(ra.Answer, &any); err == nil {
		return AnswerValue{Kind: KindText, Text: fmt.Sprintf("%v", any)}
	}
	return AnswerValue{Kind: KindText, Text: string(ra.Answer)}
}

// isUploadAnswer reports whether an answer refers to uploaded files. The
// values must be URL-shaped no matter what the question type or label says:
// a free-text "none" under an upload question is not a file.
func isUploadAnswer(ra rawAnswer, values []string) bool {
	if !allURLShaped(values) {
		return false
	}
	if strings.Contains(strings.ToLower(ra.Type), "fileupload") {
		return true
	}
	label := strings.ToLower(ra.Text)
	if strings.Contains(label, "upload") || strings.Contains(label, "attach") {
		return true
	}
	for _, v := range values {
		v = strings.ToLower(v)
		if strings.Contains(v, "/uploads/") || strings.Contains(v, "/widget-uploads/") {
			return true
		}
	}
	return false
}

// allURLShaped reports whether every non-empty value is an http(s) URL.
func allURLShaped(values []string) bool {
	shaped := false
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return false
		}
		shaped = true
	}
	return shaped
}

// FileURLs returns every URL carried by file-valued answers, in bag order.
func (b AnswerBag) FileURLs() []string {
	var urls []string
	for _, a := range b {
		if a.Value.Kind != KindFiles {
			continue
		}
		for _, u := range a.Value.Files {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

// Serialized flattens every label and scalar value into one lowercase blob,
// used by keyword classification.
func (b AnswerBag) Serialized() string {
	var sb strings.Builder
	for _, a := range b {
		sb.WriteString(strings.ToLower(a.Label))
		sb.WriteString(" ")
		sb.WriteString(strings.ToLower(a.Value.Scalar()))
		sb.WriteString(" ")
	}
	return sb.String()
}
