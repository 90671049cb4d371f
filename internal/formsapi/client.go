// Package formsapi is the client for the external forms provider: list
// forms, page through submissions, fetch question schemas and register
// webhooks. Every call class goes through its own token-bucket limiter so
// the externally imposed rate limits hold even if callers are ever made
// concurrent.
package formsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brightpath-housing/intake/internal/models"
)

// Minimum spacing between calls, per call class.
const (
	submissionInterval = 100 * time.Millisecond
	formInterval       = 500 * time.Millisecond
	webhookInterval    = 200 * time.Millisecond
)

// Form is one form owned by the provider account.
type Form struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Question is one entry of a form's question schema.
type Question struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Order string `json:"order"`
}

// Client talks to the forms provider REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	subLimiter  *rate.Limiter
	formLimiter *rate.Limiter
	hookLimiter *rate.Limiter
}

// NewClient builds a provider client. httpClient may be nil, in which case a
// pooled client with a 10s timeout is used.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  httpClient,
		subLimiter:  rate.NewLimiter(rate.Every(submissionInterval), 1),
		formLimiter: rate.NewLimiter(rate.Every(formInterval), 1),
		hookLimiter: rate.NewLimiter(rate.Every(webhookInterval), 1),
	}
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	ResponseCode int             `json:"responseCode"`
	Message      string          `json:"message"`
	Content      json.RawMessage `json:"content"`
}

// ListForms returns up to limit forms for the account.
func (c *Client) ListForms(ctx context.Context, limit int) ([]Form, error) {
	content, err := c.get(ctx, c.formLimiter, fmt.Sprintf("/forms?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var forms []Form
	if err := json.Unmarshal(content, &forms); err != nil {
		return nil, fmt.Errorf("failed to decode forms list: %w", err)
	}
	return forms, nil
}

// rawSubmission mirrors one provider submission before answer decoding.
type rawSubmission struct {
	ID      string                     `json:"id"`
	FormID  string                     `json:"form_id"`
	Answers map[string]json.RawMessage `json:"answers"`
}

// ListSubmissions fetches up to limit submissions for one form and decodes
// each answer bag once, at the boundary. A submission whose answers cannot
// be decoded is logged and dropped; the rest of the page survives.
func (c *Client) ListSubmissions(ctx context.Context, formID string, limit int) ([]models.Submission, error) {
	path := fmt.Sprintf("/forms/%s/submissions?limit=%d", url.PathEscape(formID), limit)
	content, err := c.get(ctx, c.subLimiter, path)
	if err != nil {
		return nil, err
	}
	var raw []rawSubmission
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode submissions for form %s: %w", formID, err)
	}
	subs := make([]models.Submission, 0, len(raw))
	for _, rs := range raw {
		bag, err := models.DecodeAnswers(rs.Answers)
		if err != nil {
			// One undecodable submission never costs the rest of its page.
			slog.Warn("Skipping submission with undecodable answers.", "submissionId", rs.ID, "formId", formID, "error", err)
			continue
		}
		fid := rs.FormID
		if fid == "" {
			fid = formID
		}
		subs = append(subs, models.Submission{FormID: fid, SubmissionID: rs.ID, Answers: bag})
	}
	return subs, nil
}

// GetQuestions fetches the question schema of a form, keyed by question ID.
func (c *Client) GetQuestions(ctx context.Context, formID string) (map[string]Question, error) {
	path := fmt.Sprintf("/forms/%s/questions", url.PathEscape(formID))
	content, err := c.get(ctx, c.formLimiter, path)
	if err != nil {
		return nil, err
	}
	var questions map[string]Question
	if err := json.Unmarshal(content, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for form %s: %w", formID, err)
	}
	return questions, nil
}

// RegisterWebhook registers webhookURL as a submission webhook on the form.
func (c *Client) RegisterWebhook(ctx context.Context, formID, webhookURL string) error {
	if err := c.hookLimiter.Wait(ctx); err != nil {
		return err
	}
	form := url.Values{"webhookURL": {webhookURL}}
	endpoint := fmt.Sprintf("%s/forms/%s/webhooks", c.baseURL, url.PathEscape(formID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook registration for form %s failed: %w", formID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// get performs a rate-limited GET and unwraps the provider envelope.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, path string) (json.RawMessage, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to forms provider failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: truncate(string(body), 4096)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode provider envelope: %w", err)
	}
	if env.ResponseCode != 0 && (env.ResponseCode < 200 || env.ResponseCode > 299) {
		return nil, &UpstreamError{Status: env.ResponseCode, Body: env.Message}
	}
	return env.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
