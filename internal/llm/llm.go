package llm

import (
	"context"
	"errors"
)

// Completer produces model output for a fully rendered prompt. The API key
// belongs to the end user and is passed per call, never stored.
type Completer interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
}

var (
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrQuotaExceeded = errors.New("api quota exceeded")
	ErrEmptyResponse = errors.New("empty completion response")
)
