package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when no object exists under the key
var ErrNotFound = errors.New("report not found")

// FileInfo represents information about a stored report
type FileInfo struct {
	Key         string // Object key relative to the storage root
	Location    string // Filesystem path or s3:// URL
	Size        int64  // Size in bytes
	ContentType string
}

// FileStorage defines the operations on archived reports
type FileStorage interface {
	// Save writes data under key, replacing any existing object
	Save(ctx context.Context, key, contentType string, data []byte) (*FileInfo, error)

	// Open returns a reader for the object under key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// ReportKey builds a unique object key such as
// "class-records/10/2025/08/18/ab12cd34ef56ab78.xlsx".
func ReportKey(folder string, sectionCourseID int64, ext string, now time.Time) string {
	ext = strings.TrimPrefix(ext, ".")
	return path.Join(
		folder,
		fmt.Sprintf("%d", sectionCourseID),
		fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day()),
		strings.ReplaceAll(uuid.New().String(), "-", "")[:16]+"."+ext,
	)
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return k, nil
}
