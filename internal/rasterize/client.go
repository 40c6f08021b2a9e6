// Package rasterize converts slide decks into per-slide images through an
// external rendering service, storing each rendered page in object storage.
package rasterize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/review"
)

// Config holds rendering service settings.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Format       string // jpg or png
	Width        int
	Height       int
	Timeout      time.Duration
}

// Client drives the rendering service. One Rasterize call uploads the deck,
// renders every slide at the configured resolution, and cleans up the
// service-side temp file.
type Client struct {
	cfg        Config
	objects    objectstore.Store
	httpClient *http.Client
	log        *observability.Logger
}

// NewClient creates a rasterization client writing rendered pages through
// the given object store.
func NewClient(log *observability.Logger, cfg Config, objects objectstore.Store) *Client {
	if cfg.Format == "" {
		cfg.Format = "jpg"
	}
	if cfg.Width == 0 {
		cfg.Width = 1920
	}
	if cfg.Height == 0 {
		cfg.Height = 1080
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		objects:    objects,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithComponent("rasterizer"),
	}
}

// Rasterize converts the deck into one stored image per slide and returns
// the content descriptor for the derived pages. Individual slide failures
// are skipped; only a deck-level failure aborts.
func (c *Client) Rasterize(ctx context.Context, bucket, jobKey string, deck []byte) (*review.ContentDescriptor, error) {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("rasterizer auth: %w", err)
	}

	// Per-job temp name; the service namespace is shared across jobs.
	tempName := fmt.Sprintf("deck_%s.pptx", uuid.NewString())

	if err := c.uploadDeck(ctx, token, tempName, deck); err != nil {
		return nil, fmt.Errorf("upload deck: %w", err)
	}
	defer c.deleteDeck(ctx, token, tempName)

	slideCount, err := c.slideCount(ctx, token, tempName)
	if err != nil {
		return nil, fmt.Errorf("query slide count: %w", err)
	}

	var images []string
	for i := 1; i <= slideCount; i++ {
		img, err := c.renderSlide(ctx, token, tempName, i)
		if err != nil {
			c.log.Error().Err(err).Int("slide", i).Msg("failed to render slide, skipping")
			continue
		}

		imageKey := fmt.Sprintf("%s/images/slide_%d.%s", jobKey, i, c.cfg.Format)
		contentType := "image/" + c.cfg.Format
		if err := c.objects.PutObject(ctx, bucket, imageKey, img, contentType); err != nil {
			c.log.Error().Err(err).Int("slide", i).Msg("failed to store slide image, skipping")
			continue
		}
		images = append(images, imageKey)
	}

	return &review.ContentDescriptor{
		SourceFile:       jobKey,
		Format:           c.cfg.Format,
		ImageCount:       len(images),
		Images:           images,
		Width:            c.cfg.Width,
		Height:           c.cfg.Height,
		ProcessingMethod: review.MethodRasterizedDeck,
		Timestamp:        time.Now().Format(time.RFC3339),
	}, nil
}

// fetchToken obtains a client-credentials bearer token.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return "", err
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access_token")
	}
	return tok.AccessToken, nil
}

func (c *Client) uploadDeck(ctx context.Context, token, name string, deck []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/slides/storage/file/%s", c.cfg.BaseURL, name), bytes.NewReader(deck))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	_, err = c.do(req, http.StatusOK)
	return err
}

func (c *Client) slideCount(ctx context.Context, token, name string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/slides/%s/info", c.cfg.BaseURL, name), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var info struct {
		SlidesCount int `json:"slidesCount"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return 0, fmt.Errorf("parse deck info: %w", err)
	}
	return info.SlidesCount, nil
}

func (c *Client) renderSlide(ctx context.Context, token, name string, slide int) ([]byte, error) {
	u := fmt.Sprintf("%s/slides/%s/slides/%d/%s?width=%d&height=%d",
		c.cfg.BaseURL, name, slide, c.cfg.Format, c.cfg.Width, c.cfg.Height)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, http.StatusOK)
}

// deleteDeck removes the service-side temp file. Best effort.
func (c *Client) deleteDeck(ctx context.Context, token, name string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/slides/storage/file/%s", c.cfg.BaseURL, name), nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if _, err := c.do(req, http.StatusOK); err != nil {
		c.log.Warn().Err(err).Str("file", name).Msg("failed to delete temp deck")
	}
}

func (c *Client) do(req *http.Request, wantStatus int) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("%s %s returned status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}
	return body, nil
}
