package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchperfect/pitchperfect/internal/jobstore"
	"github.com/pitchperfect/pitchperfect/internal/models"
)

// memStore keeps jobs and reports in maps.
type memStore struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job
	results map[string]*models.EvaluationReport
	uploads map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{
		jobs:    map[string]*models.Job{},
		results: map[string]*models.EvaluationReport{},
		uploads: map[string][]byte{},
	}
}

func (m *memStore) Create(job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *memStore) Get(id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	return job, nil
}

func (m *memStore) GetResult(id string) (*models.EvaluationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.results[id]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	return rep, nil
}

func (m *memStore) SaveUpload(id, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := id + "/" + name
	m.uploads[key] = data
	return "/uploads/" + key, nil
}

// recordingRunner records which jobs were started.
type recordingRunner struct {
	mu      sync.Mutex
	started []string
	done    chan struct{}
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, 8)}
}

func (r *recordingRunner) Run(ctx context.Context, jobID string) {
	r.mu.Lock()
	r.started = append(r.started, jobID)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingRunner) waitForStart(t *testing.T) string {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner was never invoked")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.started)
	return r.started[len(r.started)-1]
}

func newTestMux(store JobStore, runner JobRunner) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, store, runner)
	return mux
}

// multipartBody builds a multipart form with the given fields and files.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	mux := newTestMux(newMemStore(), newRecordingRunner())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, Version, resp.Version)
}

func TestHandleStartTranscriptOnly(t *testing.T) {
	store := newMemStore()
	runner := newRecordingRunner()
	mux := newTestMux(store, runner)

	body, contentType := multipartBody(t, map[string]string{
		"transcript": "hello investors",
		"target":     "startup",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/start", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "/api/evaluate/status/"+resp.JobID, resp.StatusURL)
	assert.Equal(t, "pending", resp.Status)

	started := runner.waitForStart(t)
	assert.Equal(t, resp.JobID, started)

	job, err := store.Get(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, "startup", job.Target)
	assert.Equal(t, "hello investors", job.Input.Transcript)
}

func TestHandleStartWithUploads(t *testing.T) {
	store := newMemStore()
	runner := newRecordingRunner()
	mux := newTestMux(store, runner)

	body, contentType := multipartBody(t, nil, map[string][]byte{
		"deck":  []byte("slide text"),
		"media": []byte("audio bytes"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/start", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp StartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	runner.waitForStart(t)

	job, err := store.Get(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTarget, job.Target)
	assert.Equal(t, "deck.bin", job.Input.DeckName)
	assert.Equal(t, "media.bin", job.Input.MediaName)
	assert.Equal(t, []byte("slide text"), store.uploads[resp.JobID+"/deck.bin"])
	assert.Equal(t, []byte("audio bytes"), store.uploads[resp.JobID+"/media.bin"])
}

func TestHandleStartRejectsEmptySubmission(t *testing.T) {
	store := newMemStore()
	runner := newRecordingRunner()
	mux := newTestMux(store, runner)

	body, contentType := multipartBody(t, map[string]string{"target": "startup"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/start", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "at least one of deck, media, or transcript")

	assert.Empty(t, store.jobs, "no job is created for an empty submission")
	assert.Empty(t, runner.started)
}

func TestHandleStartRejectsInvalidMetadata(t *testing.T) {
	mux := newTestMux(newMemStore(), newRecordingRunner())

	body, contentType := multipartBody(t, map[string]string{
		"transcript": "hi",
		"metadata":   "{not json",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate/start", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "metadata must be valid JSON")
}

func TestHandleStatusNotFound(t *testing.T) {
	mux := newTestMux(newMemStore(), newRecordingRunner())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate/status/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job not found", resp.Error)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandleStatusRunning(t *testing.T) {
	store := newMemStore()
	store.jobs["j1"] = &models.Job{
		ID:        "j1",
		Status:    models.JobRunning,
		Target:    "startup",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	mux := newTestMux(store, newRecordingRunner())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate/status/j1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "j1", resp.JobID)
	assert.Equal(t, models.JobRunning, resp.Status)
	assert.Nil(t, resp.Result)
}

func TestHandleStatusCompletedEmbedsResult(t *testing.T) {
	store := newMemStore()
	store.jobs["j2"] = &models.Job{ID: "j2", Status: models.JobCompleted}
	store.results["j2"] = &models.EvaluationReport{
		Version: models.ReportVersion,
		Summary: models.CombineSummary{OverallScore: 71, Headline: "solid"},
	}
	mux := newTestMux(store, newRecordingRunner())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate/status/j2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, 71, resp.Result.Summary.OverallScore)
	assert.Equal(t, models.ReportVersion, resp.Result.Version)
}

func TestHandleStatusCompletedResultMissing(t *testing.T) {
	store := newMemStore()
	store.jobs["j3"] = &models.Job{ID: "j3", Status: models.JobCompleted}
	mux := newTestMux(store, newRecordingRunner())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate/status/j3", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "result unavailable", resp.Error)
}

func TestHandleStatusFailedCarriesError(t *testing.T) {
	store := newMemStore()
	store.jobs["j4"] = &models.Job{
		ID:     "j4",
		Status: models.JobFailed,
		Error:  "combine stage failed: everything went sideways",
		Warnings: []string{
			"media upload failed: connection reset",
			"agent deck skipped: no deck text available",
		},
	}
	mux := newTestMux(store, newRecordingRunner())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate/status/j4", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.JobFailed, resp.Status)
	assert.Contains(t, resp.Error, "combine stage failed")
	assert.Equal(t, []string{
		"media upload failed: connection reset",
		"agent deck skipped: no deck text available",
	}, resp.Warnings)
	assert.Nil(t, resp.Result)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok") //nolint:errcheck
	})

	t.Run("wildcard echoes origin", func(t *testing.T) {
		h := CORSMiddleware(next, "*")
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("unlisted origin gets no headers", func(t *testing.T) {
		h := CORSMiddleware(next, "http://allowed.test")
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://other.test")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		h := CORSMiddleware(next, "*")
		req := httptest.NewRequest(http.MethodOptions, "/api/evaluate/start", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
