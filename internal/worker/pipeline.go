package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediagrab/cloud-media-fetcher/internal/config"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads/fetcher"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
	"github.com/mediagrab/cloud-media-fetcher/internal/telemetry"
	"github.com/mediagrab/cloud-media-fetcher/pkg/logger"
)

// Progress checkpoints for the fetch band. The transfer band is
// computed from bytes sent, issuance pins 95 and the terminal
// transition writes 100.
const (
	progressAdmitted = 5
	progressResolved = 10
	progressFetching = 15
	progressFetched  = 60
	progressUploaded = 90
	progressIssuing  = 95
)

type pipeline struct {
	cfg      *config.Config
	registry downloads.Registry
	history  downloads.History
	awsRepo  downloads.AWSRepository
	fetcher  downloads.Fetcher
	logger   logger.Logger
	workDir  string
}

func newPipeline(
	cfg *config.Config,
	registry downloads.Registry,
	history downloads.History,
	awsRepo downloads.AWSRepository,
	fetch downloads.Fetcher,
	log logger.Logger,
) *pipeline {
	workDir := cfg.Worker.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "media-fetch")
	}
	return &pipeline{
		cfg:      cfg,
		registry: registry,
		history:  history,
		awsRepo:  awsRepo,
		fetcher:  fetch,
		logger:   log,
		workDir:  workDir,
	}
}

// Run drives one job from queued to a terminal state. It is the only
// writer for the job while it runs.
func (p *pipeline) Run(ctx context.Context, jobID string) {
	job, err := p.registry.Update(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.StartedAt = time.Now()
	})
	if err != nil {
		p.logger.Errorf("job %s no longer in registry, skipping: %v", jobID, err)
		return
	}

	telemetry.JobsInFlight.Inc()
	defer telemetry.JobsInFlight.Dec()

	writer := newProgressWriter(p.registry, p.logger, jobID)

	if p.cfg.S3.OutputBucket == "" {
		p.fail(writer, jobID, downloads.NewStageError(downloads.StageAdmission, "output bucket is not configured", downloads.ErrBucketNotConfigured))
		return
	}

	jobDir := filepath.Join(p.workDir, jobID)
	if err = os.MkdirAll(jobDir, 0o755); err != nil {
		p.fail(writer, jobID, downloads.NewStageError(downloads.StageFetch, "failed to create staging directory", err))
		return
	}
	defer p.cleanup(jobDir)

	writer.Report(progressAdmitted)
	spec := fetcher.ResolveFormat(job.MediaType, job.Quality)
	writer.Report(progressResolved)

	outPath := filepath.Join(jobDir, "media"+spec.Ext)
	writer.Report(progressFetching)
	size, err := p.fetcher.Fetch(ctx, job.SourceURL, spec, outPath)
	if err != nil {
		p.fail(writer, jobID, err)
		return
	}
	writer.Report(progressFetched)

	key := "media/" + jobID + spec.Ext
	err = p.awsRepo.UploadArtifact(ctx, &models.UploadArtifactInput{
		LocalPath:   outPath,
		Bucket:      p.cfg.S3.OutputBucket,
		Key:         key,
		ContentType: spec.ContentType,
		Size:        size,
		OnProgress: func(sent int64) {
			writer.Report(transferProgress(sent, size))
		},
	})
	if err != nil {
		p.fail(writer, jobID, downloads.NewStageError(downloads.StageTransfer, "upload to object storage failed", err))
		return
	}
	writer.Report(progressUploaded)
	telemetry.TransferredBytes.Add(float64(size))

	writer.Report(progressIssuing)
	resultURL, err := p.awsRepo.GetPresignedURL(ctx, p.cfg.S3.OutputBucket, key)
	if err != nil {
		p.fail(writer, jobID, downloads.NewStageError(downloads.StageIssuance, "failed to issue retrieval link", err))
		return
	}

	writer.Close()
	done, err := p.registry.Update(context.Background(), jobID, func(j *models.Job) {
		j.Status = models.JobStatusDone
		j.Progress = 100
		j.ResultKey = key
		j.ResultURL = resultURL
		j.FileSize = size
		j.Error = ""
		j.CompletedAt = time.Now()
	})
	if err != nil {
		p.logger.Errorf("failed to record completion for job %s: %v", jobID, err)
		return
	}
	p.history.Append(models.HistoryEntry{Job: *done, RecordedAt: done.CompletedAt})
	telemetry.JobsCompleted.Inc()
	p.logger.Infof("job %s done: %s (%d bytes)", jobID, key, size)
}

// transferProgress maps a running byte count into the 60..90 band. The
// count can overshoot the artifact size on part retries, min keeps the
// band closed on the right.
func transferProgress(sent, total int64) int {
	if total <= 0 {
		return progressFetched
	}
	frac := math.Round(30 * float64(sent) / float64(total))
	return progressFetched + int(math.Min(30, frac))
}

func (p *pipeline) fail(writer *progressWriter, jobID string, cause error) {
	writer.Close()
	msg := failureMessage(cause)
	failed, err := p.registry.Update(context.Background(), jobID, func(j *models.Job) {
		j.Status = models.JobStatusError
		j.Progress = 0
		j.Error = msg
		j.CompletedAt = time.Now()
	})
	if err != nil {
		p.logger.Errorf("failed to record failure for job %s: %v", jobID, err)
		return
	}
	p.history.Append(models.HistoryEntry{Job: *failed, RecordedAt: failed.CompletedAt})
	telemetry.JobsFailed.Inc()
	p.logger.Errorf("job %s failed: %v", jobID, cause)
}

// failureMessage names cancellation and timeout distinctly and keeps
// the last tool line, it usually names the real cause.
func failureMessage(cause error) string {
	switch {
	case errors.Is(cause, context.Canceled):
		return "job canceled"
	case errors.Is(cause, context.DeadlineExceeded):
		return "job timed out"
	}
	var stageErr *downloads.StageError
	if errors.As(cause, &stageErr) && stageErr.ToolLog != "" {
		lines := strings.Split(stageErr.ToolLog, "\n")
		return fmt.Sprintf("%s (%s)", stageErr.Error(), strings.TrimSpace(lines[len(lines)-1]))
	}
	return cause.Error()
}

func (p *pipeline) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Errorf("failed to remove staging dir %s: %v", dir, err)
	}
}
