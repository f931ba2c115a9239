package agents

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyPrompt     = errors.New("prompt is empty")
	ErrRequiresAction  = errors.New("run requires tool outputs, which this agent does not provide")
	ErrSizeMismatch    = errors.New("downloaded size does not match reported size")
	ErrAgentNotCreated = errors.New("agent has no id")
)

// RunError reports a run that ended in a non-successful terminal status.
type RunError struct {
	RunID   string
	Status  openai.RunStatus
	Code    string
	Message string
}

func (e *RunError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
	}
	return fmt.Sprintf("run %s ended with status %s: %s (%s)", e.RunID, e.Status, e.Message, e.Code)
}

// IsNotFound reports whether err is a 404 from the agent service.
func IsNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusNotFound
	}

	return false
}
