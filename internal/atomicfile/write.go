// Package atomicfile writes generated files through temporary files and
// renames so a failed run never leaves a truncated output behind.

package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File is one destination path and its complete contents.
type File struct {
	Path string
	Data []byte
}

// Write atomically replaces path with data. Missing parent directories are
// created first.
func Write(path string, data []byte, perm os.FileMode) error {
	return WriteSet([]File{{Path: path, Data: data}}, perm)
}

// WriteSet writes every file to a temp file next to its destination and only
// starts renaming once all of them are staged. If staging fails no
// destination is touched and every temp file is removed. A failed rename
// part-way through can still leave earlier destinations replaced.
func WriteSet(files []File, perm os.FileMode) error {
	staged := make([]string, 0, len(files))
	var success bool
	defer func() {
		if !success {
			for _, tmp := range staged {
				os.Remove(tmp)
			}
		}
	}()

	for _, f := range files {
		tmp, err := stage(f, perm)
		if err != nil {
			return fmt.Errorf("stage %s: %w", f.Path, err)
		}
		staged = append(staged, tmp)
	}

	var errs []error
	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			errs = append(errs, fmt.Errorf("rename temp file for %s: %w", f.Path, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	success = true
	return nil
}

// stage creates the parent directory of f.Path, writes f.Data to a synced
// temp file in it and returns the temp file name.
func stage(f File, perm os.FileMode) (string, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tf, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tf.Name()

	if _, err := tf.Write(f.Data); err != nil {
		tf.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tf.Sync(); err != nil {
		tf.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tf.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return name, nil
}
