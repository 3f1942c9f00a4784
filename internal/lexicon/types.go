package lexicon

import "context"

// Lexicon defines the interface to the external lexical-database service
// used for synonym lookup. Implementations must be safe for concurrent use.
type Lexicon interface {
	// Synonyms returns alternative word/phrase forms for a single word.
	// The result never includes the queried word itself and may be empty.
	Synonyms(ctx context.Context, word string) ([]string, error)

	// Health probes the service; used by the composition root to fail
	// fast before any request is served.
	Health(ctx context.Context) error
}

// Config holds configuration for the lexicon client.
type Config struct {
	// Base URL of the lexicon service (default: http://localhost:8091)
	BaseURL string

	// HTTP client timeout in seconds (default: 30)
	Timeout int
}

// LookupError represents an error returned by the lexicon service or its
// transport.
type LookupError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *LookupError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
