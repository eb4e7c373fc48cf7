package models

// UploadArtifactInput describes one staged artifact to push to object
// storage. OnProgress receives the running byte count; with concurrent
// part readers the calls may arrive out of order.
type UploadArtifactInput struct {
	LocalPath   string                `json:"local_path"`
	Bucket      string                `json:"bucket"`
	Key         string                `json:"key"`
	ContentType string                `json:"content_type"`
	Size        int64                 `json:"size"`
	OnProgress  func(bytesSent int64) `json:"-"`
}
