// Package storage publishes benchmark report files to object storage: a
// local directory tree or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Sentinel errors wrapped by every ObjectStorage implementation.
var (
	ErrUploadFailed = errors.New("upload failed")
	ErrDeleteFailed = errors.New("delete failed")
)

// ObjectStorage stores files under slash-separated object paths.
type ObjectStorage interface {
	// Upload stores the file at localPath as objectPath.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Delete removes objectPath. A missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns every object path under prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

var contentTypes = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
	".csv":  "text/csv; charset=utf-8",
	".pb":   "application/x-protobuf",
}

// ReportContentType returns the content type of a report file and, for
// snappy-compressed (.sz) files, the content encoding.
func ReportContentType(path string) (contentType, contentEncoding string) {
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".sz") {
		contentEncoding = "x-snappy"
		name = strings.TrimSuffix(name, ".sz")
	}
	if ct, ok := contentTypes[filepath.Ext(name)]; ok {
		return ct, contentEncoding
	}
	return "application/octet-stream", contentEncoding
}
