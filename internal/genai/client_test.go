package genai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/test-model:generateContent")
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "hello")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi "},{"text":"there"}]}}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "secret", Model: "test-model", Endpoint: srv.URL})
	require.NoError(t, err)

	got, err := c.GenerateContent(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestGenerateContentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestGenerateContentNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "hello")
	assert.ErrorContains(t, err, "no candidates")
}

func TestUploadFile(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The files API uses a two-step resumable upload: a start request
		// answered with a session URL, then the bytes with a finalize.
		if strings.Contains(r.Header.Get("X-Goog-Upload-Command"), "start") {
			w.Header().Set("X-Goog-Upload-URL", srv.URL+"/upload/v1beta/files?upload_id=session-1")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("X-Goog-Upload-Status", "final")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"file": {"name": "files/abc123", "uri": "https://files.example/abc123"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "pitch.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))

	c, err := New(Config{APIKey: "k", Model: "m", Endpoint: srv.URL})
	require.NoError(t, err)

	ref, err := c.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/abc123", ref)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Model: "m"})
	assert.ErrorContains(t, err, "API key")

	_, err = New(Config{APIKey: "k"})
	assert.ErrorContains(t, err, "model id")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{StatusCode: http.StatusTooManyRequests}))
	assert.True(t, IsRetryable(&APIError{StatusCode: http.StatusInternalServerError}))
	assert.True(t, IsRetryable(&APIError{StatusCode: http.StatusBadGateway}))
	assert.True(t, IsRetryable(context.DeadlineExceeded))

	assert.False(t, IsRetryable(&APIError{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsRetryable(assert.AnError))
	assert.False(t, IsRetryable(nil))
}
