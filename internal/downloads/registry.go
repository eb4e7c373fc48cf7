package downloads

import (
	"context"

	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

// Registry is the in-process job store. Reads return snapshots, Update
// applies its mutation atomically with respect to concurrent readers
// and returns the post-mutation snapshot. Remove exists only so a
// failed queue submission can roll back an admission.
type Registry interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, jobID string) (*models.Job, error)
	Update(ctx context.Context, jobID string, mutate func(job *models.Job)) (*models.Job, error)
	Remove(ctx context.Context, jobID string) error
}
