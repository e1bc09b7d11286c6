package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	FileHashed
	FileFailed
	FileSkipped
)

var typeNames = [...]string{
	ScanStarted:  "ScanStarted",
	ScanComplete: "ScanComplete",
	FileHashed:   "FileHashed",
	FileFailed:   "FileFailed",
	FileSkipped:  "FileSkipped",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the pipeline.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string
	Reason    string // why a file was skipped
	Size      int64  // declared or hashed size
	Total     int64  // files accepted by the scan (ScanComplete)
	TotalSize int64  // bytes accepted by the scan (ScanComplete)
	Error     error
	WorkerID  int
}

// Emit stamps e and sends it without blocking. Events are dropped when
// ch is full; use Report for events that must not be lost.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// Report stamps e and sends it, blocking until the consumer accepts it.
func Report(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	ch <- e
}
