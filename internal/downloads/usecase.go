package downloads

import (
	"context"

	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

type UseCase interface {
	CreateJob(ctx context.Context, input *models.DownloadInput) (*models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	CancelJob(ctx context.Context, jobID string) error
	ListHistory(ctx context.Context) ([]models.HistoryEntry, error)
	GetMediaInfo(ctx context.Context, sourceURL string) (*models.MediaInfo, error)
}
