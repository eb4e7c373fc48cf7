package usecase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mediagrab/cloud-media-fetcher/internal/config"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
	"github.com/mediagrab/cloud-media-fetcher/internal/telemetry"
	"github.com/mediagrab/cloud-media-fetcher/pkg/logger"
	"github.com/mediagrab/cloud-media-fetcher/pkg/utils"
)

type downloadsUC struct {
	cfg      *config.Config
	registry downloads.Registry
	history  downloads.History
	fetcher  downloads.Fetcher
	queue    downloads.Queue
	logger   logger.Logger
}

func NewDownloadsUseCase(
	cfg *config.Config,
	registry downloads.Registry,
	history downloads.History,
	fetch downloads.Fetcher,
	queue downloads.Queue,
	log logger.Logger,
) downloads.UseCase {
	return &downloadsUC{
		cfg:      cfg,
		registry: registry,
		history:  history,
		fetcher:  fetch,
		queue:    queue,
		logger:   log,
	}
}

func (d *downloadsUC) CreateJob(ctx context.Context, input *models.DownloadInput) (*models.Job, error) {
	if input == nil {
		return nil, fmt.Errorf("invalid input: input is nil")
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		d.logger.Errorf("CreateJob - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}
	if err := validateSourceURL(input.URL); err != nil {
		return nil, err
	}
	if d.cfg.S3.OutputBucket == "" {
		d.logger.Error("CreateJob - output bucket is not configured")
		return nil, downloads.ErrBucketNotConfigured
	}

	mediaType := input.MediaType
	if mediaType == "" {
		mediaType = models.MediaTypeVideo
	}
	quality := input.Quality
	if quality == "" {
		quality = models.DefaultQuality
	}

	job := &models.Job{
		JobID:     uuid.New().String(),
		SourceURL: input.URL,
		MediaType: mediaType,
		Quality:   quality,
		Status:    models.JobStatusQueued,
		Progress:  0,
		CreatedAt: time.Now(),
	}
	if err := d.registry.Create(ctx, job); err != nil {
		d.logger.Errorf("CreateJob - Create error: %v", err)
		return nil, fmt.Errorf("failed to register job: %v", err)
	}
	if err := d.queue.Enqueue(job.JobID); err != nil {
		if removeErr := d.registry.Remove(ctx, job.JobID); removeErr != nil {
			d.logger.Errorf("CreateJob - rollback failed for job %s: %v", job.JobID, removeErr)
		}
		telemetry.JobsRejected.Inc()
		d.logger.Warnf("CreateJob - queue full, rejected job for %s", input.URL)
		return nil, err
	}
	telemetry.JobsAdmitted.Inc()
	d.logger.Infof("admitted job %s: %s %s %s", job.JobID, job.MediaType, job.Quality, job.SourceURL)
	return job, nil
}

func (d *downloadsUC) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	if jobID == "" {
		return nil, downloads.ErrJobNotFound
	}
	return d.registry.GetByID(ctx, jobID)
}

func (d *downloadsUC) CancelJob(ctx context.Context, jobID string) error {
	job, err := d.registry.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusProcessing {
		return downloads.ErrJobNotActive
	}
	return d.queue.Cancel(jobID)
}

func (d *downloadsUC) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	return d.history.List(), nil
}

func (d *downloadsUC) GetMediaInfo(ctx context.Context, sourceURL string) (*models.MediaInfo, error) {
	if sourceURL == "" {
		return nil, fmt.Errorf("invalid input: url is required")
	}
	if err := validateSourceURL(sourceURL); err != nil {
		return nil, err
	}
	info, err := d.fetcher.Probe(ctx, sourceURL)
	if err != nil {
		d.logger.Errorf("GetMediaInfo - Probe error: %v", err)
		return nil, fmt.Errorf("failed to inspect media: %v", err)
	}
	return info, nil
}

func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid input: source url must be http or https")
	}
	return nil
}
