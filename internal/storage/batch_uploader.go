package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchUploader publishes a set of local files in parallel.
type BatchUploader struct {
	storage     ObjectStorage
	concurrency int
}

// BatchResult contains the outcome of a batch upload.
type BatchResult struct {
	// ObjectPaths maps each uploaded local path to its object path
	ObjectPaths map[string]string
	// Errors maps each failed local path to its error
	Errors map[string]error
}

// NewBatchUploader creates a new batch uploader.
// concurrency: maximum number of parallel uploads
func NewBatchUploader(storage ObjectStorage, concurrency int) *BatchUploader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchUploader{
		storage:     storage,
		concurrency: concurrency,
	}
}

// Upload uploads every local file under dir/<base name>. Failures are
// collected per file; the returned error is non-nil only if nothing could be
// attempted.
func (b *BatchUploader) Upload(ctx context.Context, dir string, localPaths []string) (*BatchResult, error) {
	result := &BatchResult{
		ObjectPaths: make(map[string]string),
		Errors:      make(map[string]error),
	}
	if len(localPaths) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(int64(b.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, local := range localPaths {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled
			mu.Lock()
			result.Errors[local] = fmt.Errorf("semaphore acquire failed: %w", err)
			mu.Unlock()
			continue
		}

		object := ObjectPath(dir, local)
		wg.Add(1)
		go func(local, object string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := b.storage.Upload(ctx, local, object); err != nil {
				mu.Lock()
				result.Errors[local] = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result.ObjectPaths[local] = object
			mu.Unlock()
		}(local, object)
	}

	wg.Wait()

	return result, nil
}

// Uploaded returns the uploaded object paths in sorted order.
func (r *BatchResult) Uploaded() []string {
	out := make([]string, 0, len(r.ObjectPaths))
	for _, obj := range r.ObjectPaths {
		out = append(out, obj)
	}
	sort.Strings(out)
	return out
}

// ObjectPath returns the object path a local file is published under.
func ObjectPath(dir, localPath string) string {
	base := filepath.Base(localPath)
	if dir == "" {
		return base
	}
	return dir + "/" + base
}
