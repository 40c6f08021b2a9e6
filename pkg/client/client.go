// Package client provides the public Go SDK for the review engine API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the public SDK client for the review engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a review engine client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UploadResponse is the response to an accepted upload.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	JobKey  string `json:"s3_key"`
}

// StatusRecord is a job's processing status.
type StatusRecord struct {
	JobKey      string `json:"s3_key"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
	LastUpdated string `json:"last_updated"`
	Results     string `json:"results,omitempty"`
}

// CheckResult is one sub-check inside a review category.
type CheckResult struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

// CategoryResult is one review category with its sub-checks.
type CategoryResult struct {
	Status  string                 `json:"status"`
	Issues  []string               `json:"issues"`
	Details map[string]CheckResult `json:"details"`
}

// OverallResult is the report-level verdict.
type OverallResult struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// Report is a finished review report.
type Report struct {
	Overall         OverallResult             `json:"overall_result"`
	DetailedReview  map[string]CategoryResult `json:"detailed_review"`
	KeyFindings     []string                  `json:"key_findings"`
	Recommendations []string                  `json:"recommendations"`
}

// ResultResponse merges the review report with the job's status record.
type ResultResponse struct {
	JobKey      string  `json:"s3_key"`
	Status      string  `json:"status"`
	LastUpdated string  `json:"last_updated,omitempty"`
	Report      *Report `json:"report"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// Upload submits a file for review. Data is the raw file content; the
// client handles base64 encoding. Returns the job key used to poll status.
func (c *Client) Upload(ctx context.Context, fileName string, data []byte, prompt string) (*UploadResponse, error) {
	body := map[string]string{
		"file":     base64.StdEncoding.EncodeToString(data),
		"fileName": fileName,
	}
	if prompt != "" {
		body["prompt"] = prompt
	}

	var resp UploadResponse
	if err := c.post(ctx, "/api/v1/upload", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the current status record for a job key.
func (c *Client) Status(ctx context.Context, jobKey string) (*StatusRecord, error) {
	var rec StatusRecord
	if err := c.get(ctx, "/api/v1/status", jobKey, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Result fetches the finished review report for a job key.
func (c *Client) Result(ctx context.Context, jobKey string) (*ResultResponse, error) {
	var resp ResultResponse
	if err := c.get(ctx, "/api/v1/review-result", jobKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks service availability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "service unhealthy"}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path, jobKey string, out interface{}) error {
	u := fmt.Sprintf("%s%s?s3_key=%s", c.baseURL, path, url.QueryEscape(jobKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &errBody)
		if errBody.Message == "" {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
