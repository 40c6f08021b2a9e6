package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/review"
)

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) FetchBytes(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return data, nil
}

func (s *memObjectStore) PutObject(_ context.Context, bucket, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
	return nil
}

// capturedRequest is the decoded body of the last request seen by the fake
// model endpoint.
type capturedRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content []struct {
			Type   string `json:"type"`
			Text   string `json:"text"`
			Source *struct {
				Type      string `json:"type"`
				MediaType string `json:"media_type"`
				Data      string `json:"data"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

func newModelServer(t *testing.T, statusCode int, responseBody string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.WriteHeader(statusCode)
		w.Write([]byte(responseBody))
	}))
}

func TestInvoke_TextOnly(t *testing.T) {
	var captured capturedRequest
	srv := newModelServer(t, http.StatusOK, `{"content":[{"type":"text","text":"审核完成"}]}`, &captured)
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   500,
		Temperature: 0.2,
		Bucket:      "review-bucket",
	}, newMemObjectStore())

	completion, err := client.Invoke(context.Background(), review.ContentDescriptor{SourceFile: "deck.pptx"}, "审核这份内容")
	require.NoError(t, err)
	assert.Equal(t, "审核完成", completion)

	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, 500, captured.MaxTokens)
	assert.InDelta(t, 0.2, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	// Non-image content produces a single text block.
	require.Len(t, captured.Messages[0].Content, 1)
	assert.Equal(t, "text", captured.Messages[0].Content[0].Type)
	assert.Equal(t, "审核这份内容", captured.Messages[0].Content[0].Text)
}

func TestInvoke_ImageContentAttachesBase64(t *testing.T) {
	objects := newMemObjectStore()
	imgBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	require.NoError(t, objects.PutObject(context.Background(), "review-bucket", "job-1", imgBytes, "image/jpeg"))

	var captured capturedRequest
	srv := newModelServer(t, http.StatusOK, `{"content":[{"type":"text","text":"ok"}]}`, &captured)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Bucket: "review-bucket"}, objects)

	_, err := client.Invoke(context.Background(), review.ContentDescriptor{
		SourceFile:  "job-1",
		ContentType: "image/jpeg",
	}, "prompt")
	require.NoError(t, err)

	require.Len(t, captured.Messages[0].Content, 2)
	img := captured.Messages[0].Content[1]
	assert.Equal(t, "image", img.Type)
	require.NotNil(t, img.Source)
	assert.Equal(t, "base64", img.Source.Type)
	assert.Equal(t, "image/jpeg", img.Source.MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(imgBytes), img.Source.Data)
}

func TestInvoke_UnknownMediaTypeDefaultsToJPEG(t *testing.T) {
	objects := newMemObjectStore()
	require.NoError(t, objects.PutObject(context.Background(), "review-bucket", "job-2", []byte{1}, ""))

	var captured capturedRequest
	srv := newModelServer(t, http.StatusOK, `{"content":[{"type":"text","text":"ok"}]}`, &captured)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Bucket: "review-bucket"}, objects)

	_, err := client.Invoke(context.Background(), review.ContentDescriptor{
		SourceFile:  "job-2",
		ContentType: "image/tiff",
	}, "prompt")
	require.NoError(t, err)

	require.Len(t, captured.Messages[0].Content, 2)
	assert.Equal(t, "image/jpeg", captured.Messages[0].Content[1].Source.MediaType)
}

func TestInvoke_MissingImageSourceFailsBeforeHTTP(t *testing.T) {
	srv := newModelServer(t, http.StatusOK, `{}`, nil)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Bucket: "review-bucket"}, newMemObjectStore())

	_, err := client.Invoke(context.Background(), review.ContentDescriptor{
		ContentType: "image/png",
	}, "prompt")

	var pe *review.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, review.FailureImageFetch, pe.Kind)
}

func TestInvoke_ImageBytesMissing(t *testing.T) {
	srv := newModelServer(t, http.StatusOK, `{}`, nil)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Bucket: "review-bucket"}, newMemObjectStore())

	_, err := client.Invoke(context.Background(), review.ContentDescriptor{
		SourceFile:  "gone",
		ContentType: "image/png",
	}, "prompt")

	var pe *review.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, review.FailureImageFetch, pe.Kind)
}

func TestInvoke_EmptyContent(t *testing.T) {
	srv := newModelServer(t, http.StatusOK, `{"content":[]}`, nil)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, newMemObjectStore())

	_, err := client.Invoke(context.Background(), review.ContentDescriptor{SourceFile: "deck.pptx"}, "prompt")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestInvoke_Non200Status(t *testing.T) {
	srv := newModelServer(t, http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error"}}`, nil)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, newMemObjectStore())

	_, err := client.Invoke(context.Background(), review.ContentDescriptor{SourceFile: "deck.pptx"}, "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNormalizeMediaType(t *testing.T) {
	assert.Equal(t, "image/png", normalizeMediaType("image/png"))
	assert.Equal(t, "image/webp", normalizeMediaType("image/webp"))
	assert.Equal(t, "image/jpeg", normalizeMediaType("IMAGE/JPEG"))
	assert.Equal(t, "image/jpeg", normalizeMediaType(""))
	assert.Equal(t, "image/jpeg", normalizeMediaType("application/pdf"))
}
