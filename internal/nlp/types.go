package nlp

import (
	"context"

	"cardforge/internal/models"
)

// Annotator defines the interface to the external natural-language
// annotation service. Implementations must be safe for concurrent use.
type Annotator interface {
	// Annotate segments text into sentences and attaches entity,
	// noun-chunk, and token annotations.
	Annotate(ctx context.Context, text string) (*models.AnnotatedDocument, error)

	// Health probes the service; used by the composition root to fail
	// fast before any request is served.
	Health(ctx context.Context) error
}

// Config holds configuration for the annotation client.
type Config struct {
	// Base URL of the annotation service (default: http://localhost:8090)
	BaseURL string

	// HTTP client timeout in seconds (default: 30)
	Timeout int
}

// AnnotateError represents an error returned by the annotation service or
// its transport.
type AnnotateError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AnnotateError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
