package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mediagrab/cloud-media-fetcher/internal/config"
	"github.com/mediagrab/cloud-media-fetcher/internal/downloads"
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
	"github.com/pkg/errors"
)

const (
	defaultBinary  = "yt-dlp"
	defaultRetries = 10
	toolLogTail    = 12
)

type commandResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// commandRunner abstracts external tool invocation so tests can stand
// in for the binary.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := commandResult{
		stdout: stdout.String(),
		stderr: stderr.String(),
	}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.exitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

type ytdlpFetcher struct {
	binary  string
	retries int
	runner  commandRunner
}

func NewYtdlpFetcher(cfg *config.Config) downloads.Fetcher {
	binary := cfg.Fetch.Binary
	if binary == "" {
		binary = defaultBinary
	}
	retries := cfg.Fetch.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	return &ytdlpFetcher{
		binary:  binary,
		retries: retries,
		runner:  execRunner{},
	}
}

func (f *ytdlpFetcher) Fetch(ctx context.Context, sourceURL string, spec models.FormatSpec, outPath string) (int64, error) {
	args := []string{
		"-f", spec.Selector,
		"-o", outPath,
		"--no-playlist",
		"--no-progress",
		"--no-check-certificates",
		"--retries", strconv.Itoa(f.retries),
	}
	if spec.MergeFormat != "" {
		args = append(args, "--merge-output-format", spec.MergeFormat)
	}
	args = append(args, sourceURL)

	res, err := f.runner.Run(ctx, f.binary, args...)
	if err != nil {
		return 0, downloads.NewStageError(downloads.StageFetch, "retrieval tool did not run", err)
	}
	if res.exitCode != 0 {
		return 0, &downloads.StageError{
			Stage:   downloads.StageFetch,
			Message: fmt.Sprintf("retrieval tool exited with code %d", res.exitCode),
			ToolLog: tailLines(res.stderr, toolLogTail),
		}
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return 0, &downloads.StageError{
			Stage:   downloads.StageFetch,
			Message: "retrieval tool produced no artifact",
			ToolLog: tailLines(res.stderr, toolLogTail),
			Err:     err,
		}
	}
	if info.Size() == 0 {
		return 0, downloads.NewStageError(downloads.StageFetch, "artifact verification failed", downloads.ErrEmptyArtifact)
	}
	return info.Size(), nil
}

func (f *ytdlpFetcher) Probe(ctx context.Context, sourceURL string) (*models.MediaInfo, error) {
	args := []string{
		"--dump-json",
		"--no-playlist",
		"--skip-download",
		"--no-check-certificates",
		sourceURL,
	}
	res, err := f.runner.Run(ctx, f.binary, args...)
	if err != nil {
		return nil, downloads.NewStageError(downloads.StageFetch, "retrieval tool did not run", err)
	}
	if res.exitCode != 0 {
		return nil, &downloads.StageError{
			Stage:   downloads.StageFetch,
			Message: fmt.Sprintf("retrieval tool exited with code %d", res.exitCode),
			ToolLog: tailLines(res.stderr, toolLogTail),
		}
	}
	info := &models.MediaInfo{}
	if err := json.Unmarshal([]byte(res.stdout), info); err != nil {
		return nil, errors.Wrap(err, "ytdlpFetcher.Probe.Unmarshal")
	}
	return info, nil
}

func tailLines(s string, n int) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) <= n {
		return trimmed
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
