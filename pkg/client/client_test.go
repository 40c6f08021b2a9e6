package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	var captured map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/upload", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"status":"success","message":"file accepted for processing","s3_key":"1700_aa_scan.jpg"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	resp, err := c.Upload(context.Background(), "scan.jpg", []byte{0xFF, 0xD8}, "只看水印")
	require.NoError(t, err)

	assert.Equal(t, "1700_aa_scan.jpg", resp.JobKey)
	assert.Equal(t, "scan.jpg", captured["fileName"])
	assert.Equal(t, "只看水印", captured["prompt"])

	data, err := base64.StdEncoding.DecodeString(captured["file"])
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/status", r.URL.Path)
		assert.Equal(t, "job-1", r.URL.Query().Get("s3_key"))
		w.Write([]byte(`{"s3_key":"job-1","status":"REVIEWING","timestamp":1700000000,"last_updated":"2026-09-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	rec, err := New(Config{BaseURL: srv.URL}).Status(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "REVIEWING", rec.Status)
	assert.Equal(t, int64(1700000000), rec.Timestamp)
}

func TestStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"no status found for the given key"}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Status(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "no status found")
}

func TestResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/review-result", r.URL.Path)
		w.Write([]byte(`{
			"s3_key": "job-1",
			"status": "COMPLETED",
			"report": {
				"overall_result": {"status": "FAIL", "summary": "审核发现问题，请查看详细信息"},
				"detailed_review": {
					"quality_standard": {"status": "不通过", "issues": ["发现图片质量问题"], "details": {}}
				},
				"key_findings": ["图片存在明显水印影响观看效果"],
				"recommendations": ["建议移除水印后重新提交"]
			}
		}`))
	}))
	defer srv.Close()

	resp, err := New(Config{BaseURL: srv.URL}).Result(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, "COMPLETED", resp.Status)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "FAIL", resp.Report.Overall.Status)
	assert.Equal(t, "不通过", resp.Report.DetailedReview["quality_standard"].Status)
	assert.Equal(t, []string{"建议移除水印后重新提交"}, resp.Report.Recommendations)
}

func TestResult_KeyIsEscaped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1700_aa_my deck.pptx", r.URL.Query().Get("s3_key"))
		w.Write([]byte(`{"s3_key":"1700_aa_my deck.pptx","report":null}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Result(context.Background(), "1700_aa_my deck.pptx")
	assert.NoError(t, err)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","service":"review-engine"}`))
	}))
	defer srv.Close()

	assert.NoError(t, New(Config{BaseURL: srv.URL}).Health(context.Background()))
}

func TestHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(Config{BaseURL: srv.URL}).Health(context.Background())
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}
