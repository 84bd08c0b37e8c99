package util

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ContentHash returns the SHA1 of raw file content, used as an integrity marker
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", sha1.Sum(data))
}

// GetFileMetadata extracts basic filesystem metadata
func GetFileMetadata(path string) (size int64, mtime time.Time, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to stat file: %w", ClassifyIOError(err))
	}

	return info.Size(), info.ModTime(), nil
}

// FolderSize returns the total size of regular files below dir.
// A missing folder has size 0; unreadable entries are skipped.
func FolderSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return filepath.SkipDir
			}
			DebugLog("Skipping unreadable entry %s: %v", path, err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

// ClassifyIOError wraps filesystem errors with the matching sentinel so that
// callers can use errors.Is(err, ErrNotFound) / errors.Is(err, ErrPermission).
func ClassifyIOError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermission, err)
	default:
		return err
	}
}
