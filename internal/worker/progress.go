package worker

import (
	"context"

	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
	"github.com/mediagrab/cloud-media-fetcher/pkg/logger"
)

// progressWriter funnels progress reports from any number of goroutines
// into a single registry writer, so the recorded value never regresses
// even when reports arrive out of order. Stage reports are capped below
// 100; only the terminal transition writes 100. Close blocks until
// every queued report has been applied.
type progressWriter struct {
	registry downloads.Registry
	logger   logger.Logger
	jobID    string
	events   chan int
	done     chan struct{}
}

func newProgressWriter(registry downloads.Registry, logger logger.Logger, jobID string) *progressWriter {
	w := &progressWriter{
		registry: registry,
		logger:   logger,
		jobID:    jobID,
		events:   make(chan int, 16),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *progressWriter) run() {
	defer close(w.done)
	last := -1
	for pct := range w.events {
		if pct <= last {
			continue
		}
		last = pct
		_, err := w.registry.Update(context.Background(), w.jobID, func(job *models.Job) {
			if pct > job.Progress {
				job.Progress = pct
			}
		})
		if err != nil {
			w.logger.Errorf("progress update failed for job %s: %v", w.jobID, err)
		}
	}
}

func (w *progressWriter) Report(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	w.events <- pct
}

func (w *progressWriter) Close() {
	close(w.events)
	<-w.done
}
