package repository

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestProgressReaderReportsRunningCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	if err := os.WriteFile(path, make([]byte, 1024), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer file.Close()

	var last int64
	reader := &progressReader{
		file: file,
		onRead: func(total int64) {
			if total < last {
				t.Errorf("running count regressed: %d after %d", total, last)
			}
			last = total
		},
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		t.Fatalf("read: %v", err)
	}
	if last != 1024 {
		t.Fatalf("final count = %d, want 1024", last)
	}
}

func TestProgressReaderConcurrentReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer file.Close()

	var mu sync.Mutex
	var max int64
	reader := &progressReader{
		file: file,
		onRead: func(total int64) {
			mu.Lock()
			if total > max {
				max = total
			}
			mu.Unlock()
		},
	}

	// Concurrent part readers, the way the multipart uploader drives it.
	var wg sync.WaitGroup
	for part := 0; part < 4; part++ {
		wg.Add(1)
		go func(part int) {
			defer wg.Done()
			buf := make([]byte, 1024)
			if _, err := reader.ReadAt(buf, int64(part)*1024); err != nil && err != io.EOF {
				t.Errorf("ReadAt part %d: %v", part, err)
			}
		}(part)
	}
	wg.Wait()

	if max != 4096 {
		t.Fatalf("count = %d, want 4096 across all parts", max)
	}
}
