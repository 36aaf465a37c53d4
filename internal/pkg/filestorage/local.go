package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yigit/crms/internal/pkg/logger"
)

// LocalStorage handles saving reports to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where reports are stored
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// Save writes data to basePath/key through a temporary file so readers never
// see a partial report
func (ls *LocalStorage) Save(_ context.Context, key, contentType string, data []byte) (*FileInfo, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create subdirectory")
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to write report")
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}
	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to move report into place: %w", err)
	}

	logger.Info().Str("key", k).Int("size", len(data)).Msg("Report saved")
	return &FileInfo{
		Key:         k,
		Location:    dstPath,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Open opens the report under key
func (ls *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(ls.basePath, filepath.FromSlash(k)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	return f, nil
}

// Delete removes a report. Returns nil if the file doesn't exist.
func (ls *LocalStorage) Delete(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}

	physicalPath := filepath.Join(ls.basePath, filepath.FromSlash(k))
	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("Report to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete report")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("Report deleted")
	return nil
}
