package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// pendingOutputs tracks temporary output files so an interrupted run can
// remove them.
var pendingOutputs = &tmpRegistry{}

type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (r *tmpRegistry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *tmpRegistry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// CleanupTmpFiles removes every temporary output file that was neither
// committed nor aborted.
func CleanupTmpFiles() {
	pendingOutputs.mu.Lock()
	paths := make([]string, 0, len(pendingOutputs.paths))
	for p := range pendingOutputs.paths {
		paths = append(paths, p)
	}
	pendingOutputs.paths = nil
	pendingOutputs.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// AtomicFile is an output file that only appears at its final path once
// Commit succeeds. Until then writes go to a hidden temporary file in the
// same directory.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// CreateAtomic opens a temporary file next to target.
func CreateAtomic(target string) (*AtomicFile, error) {
	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tcat-tmp")
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", target, err)
	}
	pendingOutputs.add(f.Name())
	return &AtomicFile{File: f, target: target}, nil
}

// Commit flushes the temporary file and renames it over the target.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true
	tmp := a.Name()
	defer pendingOutputs.remove(tmp)

	if err := a.Sync(); err != nil {
		_ = a.File.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync output %s: %w", a.target, err)
	}
	if err := a.File.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close output %s: %w", a.target, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod output %s: %w", a.target, err)
	}
	if err := os.Rename(tmp, a.target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename output %s: %w", a.target, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	tmp := a.Name()
	_ = a.File.Close()
	_ = os.Remove(tmp)
	pendingOutputs.remove(tmp)
}
