package downloads

import (
	"context"

	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

// Fetcher retrieves remote media through the external tool. Fetch
// writes the artifact to outPath and returns its size in bytes.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error)
	Probe(ctx context.Context, sourceURL string) (*models.MediaInfo, error)
}
