package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mediagrab/cloud-media-fetcher/internal/config"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads/repository"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

type nopLogger struct{}

func (nopLogger) InitLogger()                                  {}
func (nopLogger) Debug(args ...interface{})                    {}
func (nopLogger) Debugf(template string, args ...interface{})  {}
func (nopLogger) Info(args ...interface{})                     {}
func (nopLogger) Infof(template string, args ...interface{})   {}
func (nopLogger) Warn(args ...interface{})                     {}
func (nopLogger) Warnf(template string, args ...interface{})   {}
func (nopLogger) Error(args ...interface{})                    {}
func (nopLogger) Errorf(template string, args ...interface{})  {}
func (nopLogger) DPanic(args ...interface{})                   {}
func (nopLogger) DPanicf(template string, args ...interface{}) {}
func (nopLogger) Fatal(args ...interface{})                    {}
func (nopLogger) Fatalf(template string, args ...interface{})  {}

// fakeFetcher stands in for the retrieval tool. By default it writes
// the source URL into the artifact so sizes differ per job.
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	fetch func(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fetch != nil {
		return f.fetch(ctx, sourceURL, spec, outPath)
	}
	if err := os.WriteFile(outPath, []byte(sourceURL), 0o644); err != nil {
		return 0, err
	}
	return int64(len(sourceURL)), nil
}

func (f *fakeFetcher) Probe(ctx context.Context, sourceURL string) (*models.MediaInfo, error) {
	return &models.MediaInfo{Title: "probe"}, nil
}

func (f *fakeFetcher) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore records uploads and issues deterministic presigned URLs.
type fakeStore struct {
	mu         sync.Mutex
	uploads    []models.UploadArtifactInput
	uploadErr  error
	presignErr error
}

func (s *fakeStore) UploadArtifact(ctx context.Context, input *models.UploadArtifactInput) error {
	s.mu.Lock()
	s.uploads = append(s.uploads, *input)
	s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if input.OnProgress != nil {
		input.OnProgress(input.Size / 2)
		input.OnProgress(input.Size)
	}
	return nil
}

func (s *fakeStore) GetPresignedURL(ctx context.Context, bucket, key string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://signed.example/" + bucket + "/" + key, nil
}

func (s *fakeStore) lastUpload(t *testing.T) models.UploadArtifactInput {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.uploads) == 0 {
		t.Fatal("no upload recorded")
	}
	return s.uploads[len(s.uploads)-1]
}

type pipelineEnv struct {
	cfg      *config.Config
	registry downloads.Registry
	history  downloads.History
	store    *fakeStore
	fetcher  *fakeFetcher
	pipeline *pipeline
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()
	cfg := &config.Config{
		S3:     config.S3Config{OutputBucket: "media-output"},
		Worker: config.WorkerConfig{WorkDir: t.TempDir()},
	}
	env := &pipelineEnv{
		cfg:      cfg,
		registry: repository.NewJobRegistry(),
		history:  repository.NewHistoryLog(50),
		store:    &fakeStore{},
		fetcher:  &fakeFetcher{},
	}
	env.pipeline = newPipeline(cfg, env.registry, env.history, env.store, env.fetcher, nopLogger{})
	return env
}

func (e *pipelineEnv) seedJob(t *testing.T, id string, mediaType models.MediaType, quality string) {
	t.Helper()
	err := e.registry.Create(context.Background(), &models.Job{
		JobID:     id,
		SourceURL: "https://youtu.be/" + id,
		MediaType: mediaType,
		Quality:   quality,
		Status:    models.JobStatusQueued,
	})
	if err != nil {
		t.Fatalf("seed job %s: %v", id, err)
	}
}

func (e *pipelineEnv) stagingDirGone(t *testing.T, id string) {
	t.Helper()
	if _, err := os.Stat(filepath.Join(e.cfg.Worker.WorkDir, id)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("staging dir for %s should be removed, stat err = %v", id, err)
	}
}

func TestPipelineRunSuccess(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "1080p")

	env.pipeline.Run(context.Background(), "job-1")

	job, err := env.registry.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if job.Status != models.JobStatusDone {
		t.Fatalf("status = %s, want done (error = %q)", job.Status, job.Error)
	}
	if job.Progress != 100 {
		t.Fatalf("progress = %d, want 100", job.Progress)
	}
	if job.ResultKey != "media/job-1.mp4" {
		t.Fatalf("result key = %q", job.ResultKey)
	}
	if !strings.Contains(job.ResultURL, job.ResultKey) {
		t.Fatalf("result url = %q", job.ResultURL)
	}
	if job.FileSize != int64(len("https://youtu.be/job-1")) {
		t.Fatalf("file size = %d", job.FileSize)
	}
	if job.Error != "" {
		t.Fatalf("error = %q, want empty", job.Error)
	}
	if job.StartedAt.IsZero() || job.CompletedAt.IsZero() {
		t.Fatalf("timestamps missing: %+v", job)
	}

	upload := env.store.lastUpload(t)
	if upload.Bucket != "media-output" || upload.ContentType != "video/mp4" {
		t.Fatalf("upload = %+v", upload)
	}

	entries := env.history.List()
	if len(entries) != 1 || entries[0].Job.JobID != "job-1" || entries[0].Job.Status != models.JobStatusDone {
		t.Fatalf("history = %+v", entries)
	}
	env.stagingDirGone(t, "job-1")
}

func TestPipelineRunAudioJob(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-a", models.MediaTypeAudio, "")

	env.pipeline.Run(context.Background(), "job-a")

	job, _ := env.registry.GetByID(context.Background(), "job-a")
	if job.Status != models.JobStatusDone {
		t.Fatalf("status = %s (error = %q)", job.Status, job.Error)
	}
	if job.ResultKey != "media/job-a.m4a" {
		t.Fatalf("result key = %q, want .m4a object", job.ResultKey)
	}
	if upload := env.store.lastUpload(t); upload.ContentType != "audio/mp4" {
		t.Fatalf("content type = %q, want audio/mp4", upload.ContentType)
	}
}

func TestPipelineRunFetchFailure(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	env.fetcher.fetch = func(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error) {
		return 0, &downloads.StageError{
			Stage:   downloads.StageFetch,
			Message: "retrieval tool exited with code 1",
			ToolLog: "warning: throttled\nERROR: Video unavailable",
		}
	}

	env.pipeline.Run(context.Background(), "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Status != models.JobStatusError {
		t.Fatalf("status = %s, want error", job.Status)
	}
	if job.Progress != 0 {
		t.Fatalf("progress = %d, want reset to 0", job.Progress)
	}
	if !strings.Contains(job.Error, "exited with code 1") || !strings.Contains(job.Error, "ERROR: Video unavailable") {
		t.Fatalf("error message = %q", job.Error)
	}
	if job.ResultURL != "" || job.ResultKey != "" {
		t.Fatalf("failed job carries result fields: %+v", job)
	}
	if len(env.store.uploads) != 0 {
		t.Fatal("transfer must not run after fetch failure")
	}
	if entries := env.history.List(); len(entries) != 1 || entries[0].Job.Status != models.JobStatusError {
		t.Fatalf("history = %+v", entries)
	}
	env.stagingDirGone(t, "job-1")
}

func TestPipelineRunEmptyArtifactMessageIsDistinct(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	env.fetcher.fetch = func(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error) {
		return 0, downloads.NewStageError(downloads.StageFetch, "artifact verification failed", downloads.ErrEmptyArtifact)
	}

	env.pipeline.Run(context.Background(), "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Status != models.JobStatusError {
		t.Fatalf("status = %s", job.Status)
	}
	if !strings.Contains(job.Error, "fetched artifact is empty") {
		t.Fatalf("error message = %q, want the empty-artifact cause", job.Error)
	}
	if strings.Contains(job.Error, "exited with code") {
		t.Fatalf("empty artifact must not read as a tool failure: %q", job.Error)
	}
	env.stagingDirGone(t, "job-1")
}

func TestPipelineRunTransferFailure(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	env.store.uploadErr = errors.New("connection reset by peer")

	env.pipeline.Run(context.Background(), "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Status != models.JobStatusError {
		t.Fatalf("status = %s", job.Status)
	}
	if !strings.Contains(job.Error, "upload to object storage failed") {
		t.Fatalf("error message = %q", job.Error)
	}
	env.stagingDirGone(t, "job-1")
}

func TestPipelineRunIssuanceFailure(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	env.store.presignErr = errors.New("signing key rejected")

	env.pipeline.Run(context.Background(), "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Status != models.JobStatusError {
		t.Fatalf("status = %s", job.Status)
	}
	if !strings.Contains(job.Error, "failed to issue retrieval link") {
		t.Fatalf("error message = %q", job.Error)
	}
	env.stagingDirGone(t, "job-1")
}

func TestPipelineRunMissingBucketFailsBeforeFetch(t *testing.T) {
	env := newPipelineEnv(t)
	env.cfg.S3.OutputBucket = ""
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")

	env.pipeline.Run(context.Background(), "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Status != models.JobStatusError {
		t.Fatalf("status = %s", job.Status)
	}
	if !strings.Contains(job.Error, "bucket is not configured") {
		t.Fatalf("error message = %q", job.Error)
	}
	if env.fetcher.fetchCalls() != 0 {
		t.Fatal("retrieval tool must not be invoked without a bucket")
	}
}

func TestPipelineRunUnknownJobWritesNothing(t *testing.T) {
	env := newPipelineEnv(t)

	env.pipeline.Run(context.Background(), "ghost")

	if env.fetcher.fetchCalls() != 0 {
		t.Fatal("no stage may run for an unknown job")
	}
	if len(env.history.List()) != 0 {
		t.Fatal("no history entry for an unknown job")
	}
}

func TestPipelineRunCanceledJob(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	ctx, cancel := context.WithCancel(context.Background())
	env.fetcher.fetch = func(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error) {
		cancel()
		<-ctx.Done()
		return 0, ctx.Err()
	}

	env.pipeline.Run(ctx, "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Status != models.JobStatusError {
		t.Fatalf("status = %s", job.Status)
	}
	if job.Error != "job canceled" {
		t.Fatalf("error message = %q, want %q", job.Error, "job canceled")
	}
	env.stagingDirGone(t, "job-1")
}

func TestPipelineRunTimedOutJob(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	env.fetcher.fetch = func(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error) {
		return 0, context.DeadlineExceeded
	}

	env.pipeline.Run(context.Background(), "job-1")

	job, _ := env.registry.GetByID(context.Background(), "job-1")
	if job.Error != "job timed out" {
		t.Fatalf("error message = %q, want %q", job.Error, "job timed out")
	}
}

func TestPipelineRunsAreIndependent(t *testing.T) {
	env := newPipelineEnv(t)
	env.seedJob(t, "job-1", models.MediaTypeVideo, "720p")
	env.seedJob(t, "job-22", models.MediaTypeVideo, "1080p")

	var wg sync.WaitGroup
	for _, id := range []string{"job-1", "job-22"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			env.pipeline.Run(context.Background(), id)
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"job-1", "job-22"} {
		job, _ := env.registry.GetByID(context.Background(), id)
		if job.Status != models.JobStatusDone {
			t.Fatalf("job %s status = %s (error = %q)", id, job.Status, job.Error)
		}
		if job.ResultKey != "media/"+id+".mp4" {
			t.Fatalf("job %s result key = %q", id, job.ResultKey)
		}
		if job.FileSize != int64(len("https://youtu.be/"+id)) {
			t.Fatalf("job %s file size = %d", id, job.FileSize)
		}
	}
	if len(env.history.List()) != 2 {
		t.Fatalf("history len = %d, want 2", len(env.history.List()))
	}
}

func TestTransferProgressBand(t *testing.T) {
	cases := []struct {
		sent, total int64
		want        int
	}{
		{0, 100, 60},
		{50, 100, 75},
		{100, 100, 90},
		{1, 3, 70},
		{250, 100, 90},
		{10, 0, 60},
	}
	for _, tc := range cases {
		if got := transferProgress(tc.sent, tc.total); got != tc.want {
			t.Fatalf("transferProgress(%d, %d) = %d, want %d", tc.sent, tc.total, got, tc.want)
		}
	}
}
