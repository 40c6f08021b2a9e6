package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/queue"
	"github.com/slidegate/review-engine/internal/review"
	"github.com/slidegate/review-engine/internal/status"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) FetchBytes(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return data, nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, key string, body []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = body
	return nil
}

type fakeRasterizer struct {
	err   error
	calls int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, bucket, jobKey string, deck []byte) (*review.ContentDescriptor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &review.ContentDescriptor{
		SourceFile:       jobKey,
		ProcessingMethod: review.MethodRasterizedDeck,
		Format:           "jpg",
		ImageCount:       2,
		Images:           []string{jobKey + "/images/slide_1.jpg", jobKey + "/images/slide_2.jpg"},
		Timestamp:        time.Now().Format(time.RFC3339),
	}, nil
}

func newTestService(objects *fakeObjectStore, statuses status.Store, rasterizer Rasterizer, jobs queue.Queue) *Service {
	return NewService(observability.Nop(), objects, statuses, rasterizer, jobs, "review-bucket")
}

var jobKeyPattern = regexp.MustCompile(`^\d+_[0-9a-f]{8}_`)

func TestHandleUpload_Deck(t *testing.T) {
	objects := newFakeObjectStore()
	statuses := status.NewMemoryStore()
	rasterizer := &fakeRasterizer{}
	jobs := queue.NewMemoryQueue(4)

	svc := newTestService(objects, statuses, rasterizer, jobs)
	result, err := svc.HandleUpload(context.Background(), UploadRequest{
		FileName: "Deck.PPTX",
		Data:     []byte("fake deck bytes"),
	})
	require.NoError(t, err)

	assert.Regexp(t, jobKeyPattern, result.JobKey)
	assert.Contains(t, result.JobKey, "deck.pptx", "file name is lowercased into the key")
	assert.Equal(t, 1, rasterizer.calls)

	// Original deck is stored.
	_, err = objects.FetchBytes(context.Background(), "review-bucket", result.JobKey+"/original")
	assert.NoError(t, err)

	// Descriptor is stored and well formed.
	raw, err := objects.FetchBytes(context.Background(), "review-bucket", result.JobKey+"/"+DescriptorSuffix)
	require.NoError(t, err)
	var d review.ContentDescriptor
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, review.MethodRasterizedDeck, d.ProcessingMethod)
	assert.Equal(t, 2, d.ImageCount)

	// Job is enqueued with the descriptor key.
	job, ok, err := jobs.Dequeue(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.JobKey, job.JobKey)
	assert.Equal(t, "review-bucket", job.Bucket)
	assert.Equal(t, result.JobKey+"/"+DescriptorSuffix, job.DescriptorKey)

	// Status ends at WAITING_REVIEW.
	rec, err := statuses.Get(context.Background(), result.JobKey)
	require.NoError(t, err)
	assert.Equal(t, status.StateWaitingReview, rec.Status)
}

func TestHandleUpload_Image(t *testing.T) {
	objects := newFakeObjectStore()
	statuses := status.NewMemoryStore()
	rasterizer := &fakeRasterizer{}
	jobs := queue.NewMemoryQueue(4)

	svc := newTestService(objects, statuses, rasterizer, jobs)
	result, err := svc.HandleUpload(context.Background(), UploadRequest{
		FileName: "scan.JPG",
		Data:     []byte{0xFF, 0xD8},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, rasterizer.calls, "images bypass rasterization")

	raw, err := objects.FetchBytes(context.Background(), "review-bucket", result.JobKey+"/"+DescriptorSuffix)
	require.NoError(t, err)
	var d review.ContentDescriptor
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, review.MethodDirectImage, d.ProcessingMethod)
	assert.Equal(t, "image/jpeg", d.ContentType)
	assert.Equal(t, result.JobKey, d.SourceFile)
	assert.Equal(t, int64(2), d.FileSize)

	// Image bytes live directly at the job key.
	img, err := objects.FetchBytes(context.Background(), "review-bucket", result.JobKey)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, img)
}

func TestHandleUpload_PNGContentType(t *testing.T) {
	objects := newFakeObjectStore()
	svc := newTestService(objects, status.NewMemoryStore(), &fakeRasterizer{}, queue.NewMemoryQueue(4))

	result, err := svc.HandleUpload(context.Background(), UploadRequest{
		FileName: "chart.png",
		Data:     []byte{1, 2, 3},
	})
	require.NoError(t, err)

	raw, err := objects.FetchBytes(context.Background(), "review-bucket", result.JobKey+"/"+DescriptorSuffix)
	require.NoError(t, err)
	var d review.ContentDescriptor
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, "image/png", d.ContentType)
}

func TestHandleUpload_UnsupportedType(t *testing.T) {
	svc := newTestService(newFakeObjectStore(), status.NewMemoryStore(), &fakeRasterizer{}, queue.NewMemoryQueue(4))

	_, err := svc.HandleUpload(context.Background(), UploadRequest{
		FileName: "notes.pdf",
		Data:     []byte("pdf"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestHandleUpload_RasterizeFailureFlipsStatus(t *testing.T) {
	objects := newFakeObjectStore()
	statuses := status.NewMemoryStore()
	rasterizer := &fakeRasterizer{err: errors.New("render service down")}
	jobs := queue.NewMemoryQueue(4)

	svc := newTestService(objects, statuses, rasterizer, jobs)
	_, err := svc.HandleUpload(context.Background(), UploadRequest{
		FileName: "deck.pptx",
		Data:     []byte("deck"),
	})
	require.Error(t, err)

	// The assigned job key carries an ERROR record. The key is internal, so
	// recover it from the stored original deck.
	var jobKey string
	for key := range objects.objects {
		if strings.HasSuffix(key, "/original") {
			jobKey = strings.TrimSuffix(strings.TrimPrefix(key, "review-bucket/"), "/original")
		}
	}
	require.NotEmpty(t, jobKey)
	rec, recErr := statuses.Get(context.Background(), jobKey)
	require.NoError(t, recErr)
	assert.Equal(t, status.StateError, rec.Status)
	assert.Contains(t, rec.Results, "render service down")

	// No job was enqueued.
	_, ok, dqErr := dequeueNonBlocking(jobs)
	require.NoError(t, dqErr)
	assert.False(t, ok)
}

func TestHandleUpload_StoreFailure(t *testing.T) {
	objects := newFakeObjectStore()
	objects.putErr = errors.New("storage unavailable")

	svc := newTestService(objects, status.NewMemoryStore(), &fakeRasterizer{}, queue.NewMemoryQueue(4))
	_, err := svc.HandleUpload(context.Background(), UploadRequest{
		FileName: "scan.jpg",
		Data:     []byte{1},
	})
	assert.Error(t, err)
}

func TestHandleUpload_UniqueJobKeys(t *testing.T) {
	svc := newTestService(newFakeObjectStore(), status.NewMemoryStore(), &fakeRasterizer{}, queue.NewMemoryQueue(8))

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		result, err := svc.HandleUpload(context.Background(), UploadRequest{
			FileName: "scan.jpg",
			Data:     []byte{1},
		})
		require.NoError(t, err)
		assert.False(t, seen[result.JobKey], "job key %s repeated", result.JobKey)
		seen[result.JobKey] = true
	}
}

func dequeueNonBlocking(q *queue.MemoryQueue) (review.Job, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	job, ok, err := q.Dequeue(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return review.Job{}, false, nil
	}
	return job, ok, err
}
