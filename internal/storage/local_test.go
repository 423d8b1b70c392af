package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLocalStorage_UploadExistsDelete(t *testing.T) {
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	srcDir := t.TempDir()
	srcPath := writeTempFile(t, srcDir, "bench.json", `{"label":"Nested Queries"}`)

	ctx := context.Background()

	// Test Upload
	objectPath := "reports/bench.json"
	if err := storage.Upload(ctx, srcPath, objectPath); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// Test Exists
	exists, err := storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected object to exist")
	}

	stored, err := os.ReadFile(filepath.Join(baseDir, "reports", "bench.json"))
	if err != nil {
		t.Fatalf("failed to read stored object: %v", err)
	}
	if string(stored) != `{"label":"Nested Queries"}` {
		t.Errorf("content mismatch: got %q", stored)
	}

	// Test Delete
	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err = storage.Exists(ctx, objectPath)
	if err != nil {
		t.Fatalf("Exists after delete failed: %v", err)
	}
	if exists {
		t.Error("expected object to not exist after delete")
	}
	if _, err := os.Stat(filepath.Join(baseDir, "reports")); !os.IsNotExist(err) {
		t.Errorf("expected empty parent directory to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(baseDir); err != nil {
		t.Errorf("base directory must survive: %v", err)
	}

	// Deleting again is not an error
	if err := storage.Delete(ctx, objectPath); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestLocalStorage_UploadMissingSource(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}

	err = storage.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "r/missing.json")
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("expected ErrUploadFailed, got %v", err)
	}
	objects, err := storage.ListObjects(context.Background(), "r")
	if err != nil || len(objects) != 0 {
		t.Errorf("failed upload should leave nothing behind, got %v (%v)", objects, err)
	}
}

func TestLocalStorage_ListObjects(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	src := writeTempFile(t, t.TempDir(), "r.csv", "label,avg_ms")
	ctx := context.Background()

	for _, obj := range []string{"runs/a/r.csv", "runs/b/r.csv", "other/r.csv"} {
		if err := storage.Upload(ctx, src, obj); err != nil {
			t.Fatalf("Upload %s: %v", obj, err)
		}
	}

	objects, err := storage.ListObjects(ctx, "runs")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	sort.Strings(objects)
	if len(objects) != 2 || objects[0] != "runs/a/r.csv" || objects[1] != "runs/b/r.csv" {
		t.Errorf("unexpected objects: %v", objects)
	}

	writeTempFile(t, filepath.Join(storage.basePath, "runs", "a"), tempPrefix+"123", "partial")
	objects, err = storage.ListObjects(ctx, "runs/a")
	if err != nil || len(objects) != 1 {
		t.Errorf("temp files should be skipped, got %v (%v)", objects, err)
	}

	missing, err := storage.ListObjects(ctx, "nothing-here")
	if err != nil || len(missing) != 0 {
		t.Errorf("missing prefix should list nothing, got %v (%v)", missing, err)
	}
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := writeTempFile(t, t.TempDir(), "x.txt", "x")
	if err := storage.Upload(ctx, src, "x.txt"); err == nil {
		t.Error("expected Upload to fail with cancelled context")
	}
}

func TestPrefixedStorage(t *testing.T) {
	local, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	ctx := context.Background()
	src := writeTempFile(t, t.TempDir(), "bench.pb", "payload")

	prefixed := WithPrefix(local, "/nightly/")
	if err := prefixed.Upload(ctx, src, "run1/bench.pb"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := local.Exists(ctx, "nightly/run1/bench.pb")
	if err != nil || !exists {
		t.Fatalf("expected object under prefix, exists=%v err=%v", exists, err)
	}

	objects, err := prefixed.ListObjects(ctx, "run1")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(objects) != 1 || objects[0] != "run1/bench.pb" {
		t.Errorf("prefix should be stripped, got %v", objects)
	}

	if WithPrefix(local, "") != ObjectStorage(local) {
		t.Error("empty prefix should return the inner storage")
	}
}
