package formsapi

import "fmt"

// UpstreamError reports a non-2xx response from the forms provider. Batch
// callers skip-and-continue on it; the webhook path fails the single
// submission.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("forms provider returned status %d: %s", e.Status, e.Body)
}
