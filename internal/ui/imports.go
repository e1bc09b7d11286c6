package ui

import "github.com/bamsammich/tcat/internal/event"

// Event is the pipeline event consumed by presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted  = event.ScanStarted
	ScanComplete = event.ScanComplete
	FileHashed   = event.FileHashed
	FileFailed   = event.FileFailed
	FileSkipped  = event.FileSkipped
)
