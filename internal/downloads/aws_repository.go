package downloads

import (
	"context"

	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

type AWSRepository interface {
	UploadArtifact(ctx context.Context, input *models.UploadArtifactInput) error
	GetPresignedURL(ctx context.Context, bucket, key string) (string, error)
}
