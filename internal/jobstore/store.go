// Package jobstore provides durable storage for evaluation jobs, their
// reports, and uploaded submission assets.
package jobstore

import (
	"errors"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// Store errors returned by every implementation.
var (
	// ErrNotFound is returned when a job id does not match any stored job.
	ErrNotFound = errors.New("job not found")
	// ErrDuplicateID is returned when creating a job whose id already exists.
	ErrDuplicateID = errors.New("job id already exists")
	// ErrAlreadyFinalized is returned on a second SaveResult for the same job.
	ErrAlreadyFinalized = errors.New("result already finalized")
)

// Store is the persistence contract for jobs and results. Implementations
// must publish records atomically: a concurrent Get never observes a
// partially written job or report.
type Store interface {
	// Create persists a new job record. Fails with ErrDuplicateID if the id
	// is already taken.
	Create(job *models.Job) error

	// Update applies mutate to the current job record under the store's
	// per-id lock, bumps UpdatedAt, and publishes the new snapshot.
	Update(id string, mutate func(*models.Job)) (*models.Job, error)

	// Get returns the current snapshot of a job.
	Get(id string) (*models.Job, error)

	// SaveResult persists the final report for a job, write-once. A second
	// call fails with ErrAlreadyFinalized.
	SaveResult(id string, report *models.EvaluationReport) error

	// GetResult returns the stored report, or ErrNotFound if none exists.
	GetResult(id string) (*models.EvaluationReport, error)

	// SaveUpload persists an uploaded asset blob keyed by job id and the
	// original filename, returning the stored path.
	SaveUpload(id, name string, data []byte) (string, error)
}
