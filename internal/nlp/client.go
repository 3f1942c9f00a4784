package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cardforge/internal/models"
)

// client implements the Annotator interface against an HTTP annotation
// service (one POST per document; the whole text is annotated in a single
// coarse-grained call).
type client struct {
	config *Config
	client *http.Client
}

// NewClient creates an annotation client with the given configuration.
func NewClient(config Config) Annotator {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8090"
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

type annotateRequest struct {
	Text string `json:"text"`
}

// Annotate implements Annotator.
func (c *client) Annotate(ctx context.Context, text string) (*models.AnnotatedDocument, error) {
	reqBody, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nil, &AnnotateError{
			Code:    "marshal_error",
			Message: "Failed to marshal annotation request",
			Details: err.Error(),
		}
	}

	maxRetries := 2
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		doc, err := c.annotateOnce(ctx, reqBody)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return doc, nil
	}

	return nil, &AnnotateError{
		Code:    "request_failed",
		Message: "Annotation service failed after retries",
		Details: lastErr.Error(),
	}
}

func (c *client) annotateOnce(ctx context.Context, reqBody []byte) (*models.AnnotatedDocument, error) {
	url := c.config.BaseURL + "/annotate"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &AnnotateError{
			Code:    "request_creation_failed",
			Message: "Failed to create HTTP request",
			Details: err.Error(),
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &AnnotateError{
			Code:    "network_error",
			Message: "Network request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AnnotateError{
			Code:    "response_read_failed",
			Message: "Failed to read response body",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp.StatusCode, body)
	}

	var doc models.AnnotatedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &AnnotateError{
			Code:    "response_parse_failed",
			Message: "Failed to parse annotation response",
			Details: fmt.Sprintf("parse error: %s, body: %s", err.Error(), string(body)),
		}
	}

	return &doc, nil
}

// Health implements Annotator.
func (c *client) Health(ctx context.Context) error {
	url := c.config.BaseURL + "/health"
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return &AnnotateError{
			Code:    "request_creation_failed",
			Message: "Failed to create health request",
			Details: err.Error(),
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &AnnotateError{
			Code:    "unreachable",
			Message: "Annotation service is unreachable",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return httpError(resp.StatusCode, body)
	}
	return nil
}

// httpError converts a non-200 response to an AnnotateError.
func httpError(statusCode int, body []byte) *AnnotateError {
	var errorResponse struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details,omitempty"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error.Code != "" {
		return &AnnotateError{
			Code:    errorResponse.Error.Code,
			Message: errorResponse.Error.Message,
			Details: errorResponse.Error.Details,
		}
	}

	message := "HTTP request failed"
	switch statusCode {
	case 400:
		message = "Bad request - invalid parameters"
	case 429:
		message = "Rate limit exceeded"
	case 500:
		message = "Internal server error"
	case 503:
		message = "Service unavailable"
	}

	return &AnnotateError{
		Code:    fmt.Sprintf("http_%d", statusCode),
		Message: message,
		Details: string(body),
	}
}
