package downloads

import (
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

// History records terminal job snapshots, newest first, up to a fixed
// capacity. Appending past capacity evicts the oldest entry.
type History interface {
	Append(entry models.HistoryEntry)
	List() []models.HistoryEntry
}
