package engine

import "github.com/bamsammich/tcat/internal/catalog"

// ScanTask is one accepted regular file queued for hashing.
type ScanTask struct {
	Path string
	Size uint64 // size reported by metadata at scan time
}

// FileRecord is the result of hashing one file. Sinks own records once
// emitted.
type FileRecord = catalog.Record

