package repository

import (
	"sync"
	"time"

	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

const DefaultHistoryLimit = 50

// historyLog holds the most recent terminal snapshots, newest first.
// Appends past the limit evict the oldest entry.
type historyLog struct {
	mu      sync.Mutex
	limit   int
	entries []models.HistoryEntry
}

func NewHistoryLog(limit int) downloads.History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &historyLog{
		limit:   limit,
		entries: make([]models.HistoryEntry, 0, limit),
	}
}

func (h *historyLog) Append(entry models.HistoryEntry) {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]models.HistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

func (h *historyLog) List() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
