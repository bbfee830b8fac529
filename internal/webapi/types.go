package webapi

import (
	"encoding/json"
	"time"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// StartResponse is returned by the start endpoint once a job is accepted.
type StartResponse struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl"`
	Status    string `json:"status"`
}

// StatusResponse is the job snapshot returned by the status endpoint. For
// completed jobs Result carries the full evaluation report; for failed jobs
// Warnings lists the degradations seen before the failure.
type StatusResponse struct {
	JobID     string                   `json:"jobId"`
	Status    models.JobStatus         `json:"status"`
	Target    string                   `json:"target"`
	Context   string                   `json:"context,omitempty"`
	Metadata  json.RawMessage          `json:"metadata,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Error     string                   `json:"error,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Result    *models.EvaluationReport `json:"result,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
