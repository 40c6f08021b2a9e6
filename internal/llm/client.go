// Package llm submits review prompts to a vision-capable generative model
// over an Anthropic-style messages API.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/review"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultModel     = "claude-3-7-sonnet-20250219"
	defaultMaxTokens = 2000

	// Near-deterministic sampling; the classifier depends on stable phrasing.
	defaultTemperature = 0.1
)

// ErrEmptyCompletion indicates the model response carried no content blocks.
var ErrEmptyCompletion = errors.New("model response contained no content blocks")

// Media types accepted by the model. Anything else is sent as JPEG; an
// unrecognized declared type is a leniency case, not a validation error.
var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Config holds model endpoint settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// Bucket is the storage namespace image bytes are fetched from.
	Bucket string
}

// Client invokes the model endpoint. It performs no retries; failures are
// surfaced to the caller, which owns retry policy.
type Client struct {
	cfg        Config
	objects    objectstore.Store
	httpClient *http.Client
}

// NewClient creates a model client backed by the given object store for
// image retrieval.
func NewClient(cfg Config, objects objectstore.Store) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		objects:    objects,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Invoke packages the prompt (and, for image content, the base64-encoded
// image) into a single-turn multimodal request and returns the first text
// segment of the response.
func (c *Client) Invoke(ctx context.Context, d review.ContentDescriptor, prompt string) (string, error) {
	blocks := []contentBlock{{Type: "text", Text: prompt}}

	if d.IsImage() {
		img, err := c.fetchImageBlock(ctx, d)
		if err != nil {
			return "", &review.PipelineError{Kind: review.FailureImageFetch, Err: err}
		}
		blocks = append(blocks, img)
	}

	body, err := json.Marshal(request{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    []message{{Role: "user", Content: blocks}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal model request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create model request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send model request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read model response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model API returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse model response: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Content[0].Text, nil
}

// fetchImageBlock retrieves and encodes the job's image bytes.
func (c *Client) fetchImageBlock(ctx context.Context, d review.ContentDescriptor) (contentBlock, error) {
	if d.SourceFile == "" {
		return contentBlock{}, errors.New("missing image source reference")
	}

	data, err := c.objects.FetchBytes(ctx, c.cfg.Bucket, d.SourceFile)
	if err != nil {
		return contentBlock{}, fmt.Errorf("fetch image %s: %w", d.SourceFile, err)
	}

	return contentBlock{
		Type: "image",
		Source: &imageSource{
			Type:      "base64",
			MediaType: normalizeMediaType(d.ContentType),
			Data:      base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}

// normalizeMediaType maps the declared content type onto the model's
// allow-list, defaulting to JPEG when missing or unrecognized.
func normalizeMediaType(contentType string) string {
	ct := strings.ToLower(contentType)
	if allowedMediaTypes[ct] {
		return ct
	}
	return "image/jpeg"
}
