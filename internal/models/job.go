package models

import (
	"encoding/json"
	"time"
)

// JobStatus represents the lifecycle state of an evaluation job.
type JobStatus string

// JobStatus constants
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobInput references the submission assets attached to a job.
// Paths point at blobs persisted by the job store; Transcript is the
// user-supplied transcript text, verbatim.
type JobInput struct {
	DeckPath   string `json:"deckPath,omitempty"`
	DeckName   string `json:"deckName,omitempty"`
	MediaPath  string `json:"mediaPath,omitempty"`
	MediaName  string `json:"mediaName,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// HasAny reports whether at least one evaluable asset was submitted.
func (in JobInput) HasAny() bool {
	return in.DeckPath != "" || in.MediaPath != "" || in.Transcript != ""
}

// Job is the durable record of one evaluation request. It is owned by the
// job store and mutated only through its update contract.
type Job struct {
	ID        string          `json:"id"`
	Status    JobStatus       `json:"status"`
	Target    string          `json:"target"`
	Context   string          `json:"context,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Input     JobInput        `json:"input"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Error     string          `json:"error,omitempty"`

	// Warnings holds the degradations accumulated before a job failed, so
	// callers can see what went wrong on the way down. Completed jobs carry
	// their warnings inside the report instead.
	Warnings []string `json:"warnings,omitempty"`
}
