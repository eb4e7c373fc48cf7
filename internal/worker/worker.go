package worker

import (
	"context"
	"sync"
	"time"

	"github.com/mediagrab/cloud-media-fetcher/internal/config"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/telemetry"
	"github.com/mediagrab/cloud-media-fetcher/pkg/logger"
	"github.com/mediagrab/cloud-media-fetcher/pkg/utils"
)

const (
	defaultWorkerCount = 4
	defaultQueueSize   = 64
	cpuBackoff         = time.Second
)

// Pool runs a fixed set of workers over a bounded queue of job IDs. A
// full queue rejects new work instead of blocking admission.
type Pool struct {
	cfg      *config.Config
	logger   logger.Logger
	pipeline *pipeline
	queue    chan string
	wg       sync.WaitGroup
	mu       sync.Mutex
	active   map[string]context.CancelFunc
}

func NewPool(
	cfg *config.Config,
	log logger.Logger,
	registry downloads.Registry,
	history downloads.History,
	awsRepo downloads.AWSRepository,
	fetch downloads.Fetcher,
) *Pool {
	queueSize := cfg.Worker.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Pool{
		cfg:      cfg,
		logger:   log,
		pipeline: newPipeline(cfg, registry, history, awsRepo, fetch, log),
		queue:    make(chan string, queueSize),
		active:   make(map[string]context.CancelFunc),
	}
}

func (p *Pool) Start(ctx context.Context) {
	count := p.cfg.Worker.WorkerCount
	if count <= 0 {
		count = defaultWorkerCount
	}
	p.logger.Infof("starting %d workers, queue size %d", count, cap(p.queue))
	for i := 0; i < count; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-p.queue:
			telemetry.QueueDepth.Set(float64(len(p.queue)))
			p.waitForCPU(ctx)
			p.process(ctx, jobID)
		}
	}
}

func (p *Pool) waitForCPU(ctx context.Context) {
	if p.cfg.Worker.MaxCPUUsage <= 0 {
		return
	}
	for {
		canAcceptJob, usage := utils.CheckCPUUsage(p.cfg.Worker.MaxCPUUsage)
		if canAcceptJob {
			return
		}
		p.logger.Infof("CPU usage is high: %f, delaying job pickup", usage)
		select {
		case <-ctx.Done():
			return
		case <-time.After(cpuBackoff):
		}
	}
}

func (p *Pool) process(ctx context.Context, jobID string) {
	var jobCtx context.Context
	var cancel context.CancelFunc
	if timeout := p.jobTimeout(); timeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}
	p.mu.Lock()
	p.active[jobID] = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.active, jobID)
		p.mu.Unlock()
		cancel()
	}()
	p.pipeline.Run(jobCtx, jobID)
}

func (p *Pool) jobTimeout() time.Duration {
	if p.cfg.Worker.JobTimeoutMins <= 0 {
		return 0
	}
	return time.Duration(p.cfg.Worker.JobTimeoutMins) * time.Minute
}

// Enqueue hands an admitted job to the pool without blocking.
func (p *Pool) Enqueue(jobID string) error {
	select {
	case p.queue <- jobID:
		telemetry.QueueDepth.Set(float64(len(p.queue)))
		return nil
	default:
		return downloads.ErrQueueFull
	}
}

// Cancel aborts a job that a worker is currently processing. Queued
// jobs cannot be canceled, the pipeline run is their only writer.
func (p *Pool) Cancel(jobID string) error {
	p.mu.Lock()
	cancel, ok := p.active[jobID]
	p.mu.Unlock()
	if !ok {
		return downloads.ErrJobNotActive
	}
	cancel()
	return nil
}

// Stop waits for workers to finish their current jobs. Cancel the
// context passed to Start first.
func (p *Pool) Stop() {
	p.wg.Wait()
}
