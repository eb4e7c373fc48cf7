package repository

import (
	"context"
	"sync"

	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
	"github.com/pkg/errors"
)

// jobRegistry keeps every admitted job in process memory for the
// lifetime of the process. Jobs are only removed when an admission is
// rolled back after a failed queue submission.
type jobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewJobRegistry() downloads.Registry {
	return &jobRegistry{
		jobs: make(map[string]*models.Job),
	}
}

func (r *jobRegistry) Create(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.JobID]; exists {
		return errors.Errorf("job %s already exists", job.JobID)
	}
	stored := *job
	r.jobs[job.JobID] = &stored
	return nil
}

func (r *jobRegistry) GetByID(ctx context.Context, jobID string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, downloads.ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

func (r *jobRegistry) Update(ctx context.Context, jobID string, mutate func(job *models.Job)) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, downloads.ErrJobNotFound
	}
	mutate(job)
	snapshot := *job
	return &snapshot, nil
}

func (r *jobRegistry) Remove(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[jobID]; !ok {
		return downloads.ErrJobNotFound
	}
	delete(r.jobs, jobID)
	return nil
}
