// Package webapi exposes the evaluation REST API: job submission, status
// polling, and health.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pitchperfect/pitchperfect/internal/jobstore"
	"github.com/pitchperfect/pitchperfect/internal/models"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// DefaultTarget is used when the caller omits the target category.
const DefaultTarget = "general"

// maxUploadBytes bounds one multipart submission.
const maxUploadBytes = 256 << 20

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store  JobStore
	runner JobRunner
}

// NewHandlers creates a new Handlers over the given store and runner.
func NewHandlers(store JobStore, runner JobRunner) *Handlers {
	return &Handlers{store: store, runner: runner}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleStart accepts a multipart submission, persists its assets, creates
// the job in pending state, and kicks off the worker. At least one of deck,
// media, or transcript must be present.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	target := strings.TrimSpace(r.FormValue("target"))
	if target == "" {
		target = DefaultTarget
	}

	metadata := strings.TrimSpace(r.FormValue("metadata"))
	if metadata != "" && !json.Valid([]byte(metadata)) {
		writeError(w, http.StatusBadRequest, "metadata must be valid JSON")
		return
	}

	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobPending,
		Target:    target,
		Context:   r.FormValue("context"),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Input: models.JobInput{
			Transcript: r.FormValue("transcript"),
		},
	}
	if metadata != "" {
		job.Metadata = json.RawMessage(metadata)
	}

	deckPath, deckName, err := h.saveFormFile(r, job.ID, "deck")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job.Input.DeckPath, job.Input.DeckName = deckPath, deckName

	mediaPath, mediaName, err := h.saveFormFile(r, job.ID, "media")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job.Input.MediaPath, job.Input.MediaName = mediaPath, mediaName

	if !job.Input.HasAny() {
		writeError(w, http.StatusBadRequest, "at least one of deck, media, or transcript is required")
		return
	}

	if err := h.store.Create(job); err != nil {
		slog.Error("cannot create job", "jobId", job.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "cannot create job")
		return
	}

	// The job runs to a terminal state regardless of the caller; it is not
	// tied to the request context.
	go h.runner.Run(context.Background(), job.ID)

	slog.Info("job accepted", "jobId", job.ID, "target", job.Target,
		"deck", deckName != "", "media", mediaName != "", "transcript", job.Input.Transcript != "")

	writeJSON(w, http.StatusAccepted, StartResponse{
		JobID:     job.ID,
		StatusURL: "/api/evaluate/status/" + job.ID,
		Status:    string(models.JobPending),
	})
}

// HandleStatus returns the current job snapshot. Completed jobs carry the
// full report under result.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := StatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Target:    job.Target,
		Context:   job.Context,
		Metadata:  job.Metadata,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Error:     job.Error,
		Warnings:  job.Warnings,
	}

	if job.Status == models.JobCompleted {
		result, err := h.store.GetResult(id)
		if err != nil {
			slog.Error("completed job has no readable result", "jobId", id, "error", err)
			writeError(w, http.StatusInternalServerError, "result unavailable")
			return
		}
		resp.Result = result
	}

	writeJSON(w, http.StatusOK, resp)
}

// saveFormFile persists an optional uploaded file and returns its stored
// path and original filename, or empty strings when the part is absent.
func (h *Handlers) saveFormFile(r *http.Request, jobID, field string) (path, name string, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("reading %s upload: %w", field, err)
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("reading %s upload: %w", field, err)
	}

	path, err = h.store.SaveUpload(jobID, header.Filename, data)
	if err != nil {
		return "", "", fmt.Errorf("storing %s upload: %w", field, err)
	}
	return path, header.Filename, nil
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store JobStore, runner JobRunner) {
	h := NewHandlers(store, runner)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/evaluate/start", h.HandleStart)
	mux.HandleFunc("GET /api/evaluate/status/{jobId}", h.HandleStatus)
}

// CORSMiddleware wraps a handler with CORS headers. An allowed origin of
// "*" permits any origin; an empty list sets no CORS headers at all.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
