package lexicon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// client implements the Lexicon interface against an HTTP synonym service.
type client struct {
	config *Config
	client *http.Client
}

// NewClient creates a lexicon client with the given configuration.
func NewClient(config Config) Lexicon {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8091"
	}
	if config.Timeout == 0 {
		config.Timeout = 30
	}

	return &client{
		config: &config,
		client: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

type synonymsResponse struct {
	Word     string   `json:"word"`
	Synonyms []string `json:"synonyms"`
}

// Synonyms implements Lexicon. The service contract excludes the queried
// word from its results; the client drops it anyway if it slips through.
func (c *client) Synonyms(ctx context.Context, word string) ([]string, error) {
	endpoint := c.config.BaseURL + "/synonyms?word=" + url.QueryEscape(word)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, &LookupError{
			Code:    "request_creation_failed",
			Message: "Failed to create HTTP request",
			Details: err.Error(),
		}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &LookupError{
			Code:    "network_error",
			Message: "Network request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LookupError{
			Code:    "response_read_failed",
			Message: "Failed to read response body",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &LookupError{
			Code:    fmt.Sprintf("http_%d", resp.StatusCode),
			Message: "Synonym lookup failed",
			Details: string(body),
		}
	}

	var parsed synonymsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &LookupError{
			Code:    "response_parse_failed",
			Message: "Failed to parse synonym response",
			Details: fmt.Sprintf("parse error: %s, body: %s", err.Error(), string(body)),
		}
	}

	lowered := strings.ToLower(word)
	synonyms := make([]string, 0, len(parsed.Synonyms))
	for _, syn := range parsed.Synonyms {
		if strings.ToLower(syn) == lowered {
			continue
		}
		synonyms = append(synonyms, syn)
	}
	return synonyms, nil
}

// Health implements Lexicon.
func (c *client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.config.BaseURL+"/health", nil)
	if err != nil {
		return &LookupError{
			Code:    "request_creation_failed",
			Message: "Failed to create health request",
			Details: err.Error(),
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &LookupError{
			Code:    "unreachable",
			Message: "Lexicon service is unreachable",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &LookupError{
			Code:    fmt.Sprintf("http_%d", resp.StatusCode),
			Message: "Lexicon service health check failed",
			Details: string(body),
		}
	}
	return nil
}
