package downloads

import (
	"errors"
	"fmt"
)

// Pipeline stage names carried on StageError and used in logs.
const (
	StageAdmission = "admission"
	StageFetch     = "fetch"
	StageTransfer  = "transfer"
	StageIssuance  = "issuance"
)

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrQueueFull           = errors.New("job queue is full")
	ErrJobNotActive        = errors.New("job is not active")
	ErrEmptyArtifact       = errors.New("fetched artifact is empty")
	ErrBucketNotConfigured = errors.New("output bucket is not configured")
)

// StageError reports the failure of one pipeline stage. ToolLog holds
// the tail of the external tool's stderr when the stage ran one.
type StageError struct {
	Stage   string
	Message string
	ToolLog string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage, message string, err error) *StageError {
	return &StageError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}
