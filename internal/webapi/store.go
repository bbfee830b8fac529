package webapi

import (
	"context"

	"github.com/pitchperfect/pitchperfect/internal/models"
)

// JobStore is the persistence surface the handlers need. The production
// implementation is internal/jobstore; tests substitute a mock.
type JobStore interface {
	Create(job *models.Job) error
	Get(id string) (*models.Job, error)
	GetResult(id string) (*models.EvaluationReport, error)
	SaveUpload(id, name string, data []byte) (string, error)
}

// JobRunner processes an accepted job to a terminal state. The production
// implementation is the workflow scheduler.
type JobRunner interface {
	Run(ctx context.Context, jobID string)
}
