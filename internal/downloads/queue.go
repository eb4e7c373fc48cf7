package downloads

// Queue hands admitted job IDs to the worker pool. Enqueue returns
// ErrQueueFull when the pool's buffer is at capacity; Cancel returns
// ErrJobNotActive unless the job is currently being processed.
type Queue interface {
	Enqueue(jobID string) error
	Cancel(jobID string) error
}
