package models

import (
	"encoding/json"
	"time"
)

// These structs define the JSON payloads for HTTP requests and responses
// between the forms provider, the admin surface, and the worker functions.

// WebhookRequest is the inbound webhook body. Providers deliver answers
// either at the top level or nested under rawRequest.
type WebhookRequest struct {
	SubmissionID string                     `json:"submissionID"`
	FormID       string                     `json:"formID"`
	Answers      map[string]json.RawMessage `json:"answers"`
	RawRequest   *struct {
		SubmissionID string                     `json:"submissionID"`
		FormID       string                     `json:"formID"`
		Answers      map[string]json.RawMessage `json:"answers"`
	} `json:"rawRequest"`
}

// Submission normalizes the two accepted body shapes into one Submission.
func (r *WebhookRequest) Submission() (Submission, error) {
	subID, formID, answers := r.SubmissionID, r.FormID, r.Answers
	if r.RawRequest != nil {
		if subID == "" {
			subID = r.RawRequest.SubmissionID
		}
		if formID == "" {
			formID = r.RawRequest.FormID
		}
		if answers == nil {
			answers = r.RawRequest.Answers
		}
	}
	bag, err := DecodeAnswers(answers)
	if err != nil {
		return Submission{}, err
	}
	return Submission{FormID: formID, SubmissionID: subID, Answers: bag}, nil
}

// WebhookResponse is returned to the webhook sender.
type WebhookResponse struct {
	Success   bool        `json:"success"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// AdminRequest triggers a bulk or administrative action.
type AdminRequest struct {
	Action  string   `json:"action"`
	FormIDs []string `json:"form_ids,omitempty"`
}

// AdminResponse reports the outcome of an administrative action.
type AdminResponse struct {
	Success   bool        `json:"success"`
	Action    string      `json:"action"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
