package engine

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrSizeMismatch means the bytes read differ from the size recorded at scan time.
	ErrSizeMismatch = errors.New("metadata size and file size don't match")
	// ErrInvalidPath means the path is not valid UTF-8 and cannot be cataloged.
	ErrInvalidPath = errors.New("invalid Unicode in path")
	// ErrNewlineInPath means the path contains '\n', which terminates a path
	// in both the listing and the catalog payload.
	ErrNewlineInPath = errors.New("newline in path")
	// ErrDirectoryLoop means a followed symlink leads back to one of its ancestors.
	ErrDirectoryLoop = errors.New("filesystem loop detected")
)

// ScanError aborts the scan. It always names the path being inspected.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *ScanError) Unwrap() error { return e.Err }

// FileError is a per-file failure; the file is dropped and the pipeline
// continues.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

func newScanError(path string, err error) *ScanError {
	return &ScanError{Path: path, Err: stripPath(err)}
}

func newFileError(path string, err error) *FileError {
	return &FileError{Path: path, Err: stripPath(err)}
}

// stripPath drops the path from an *fs.PathError so messages name the
// path exactly once.
func stripPath(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s: %w", pe.Op, pe.Err)
	}
	return err
}
