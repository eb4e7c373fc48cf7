package models

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

const DefaultQuality = "720p"

// Job is the unit of work tracked from admission to its terminal state.
// After admission only the pipeline run that owns the job mutates it.
type Job struct {
	JobID       string    `json:"job_id" validate:"required"`
	SourceURL   string    `json:"url" validate:"required,url"`
	MediaType   MediaType `json:"media_type" validate:"required,oneof=video audio"`
	Quality     string    `json:"quality" validate:"omitempty,lte=20"`
	Status      JobStatus `json:"status" validate:"required"`
	Progress    int       `json:"progress" validate:"gte=0,lte=100"`
	ResultKey   string    `json:"result_key,omitempty" validate:"omitempty"`
	ResultURL   string    `json:"result_url,omitempty" validate:"omitempty"`
	FileSize    int64     `json:"file_size,omitempty" validate:"omitempty"`
	Error       string    `json:"error,omitempty" validate:"omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

type DownloadInput struct {
	URL       string    `json:"url" validate:"required,url,lte=2048"`
	MediaType MediaType `json:"media_type" validate:"omitempty,oneof=video audio"`
	Quality   string    `json:"quality" validate:"omitempty,lte=20"`
}

// HistoryEntry is an immutable snapshot of a job taken when it reached
// a terminal state.
type HistoryEntry struct {
	Job        Job       `json:"job"`
	RecordedAt time.Time `json:"recorded_at"`
}
