package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	DirListed Type = iota + 1
	FileStarted
	FileCompleted
	FileFailed
	FileSkipped
	FileRemoved
	PartWritten
	PartMerged
)

var typeNames = [...]string{
	DirListed:     "DirListed",
	FileStarted:   "FileStarted",
	FileCompleted: "FileCompleted",
	FileFailed:    "FileFailed",
	FileSkipped:   "FileSkipped",
	FileRemoved:   "FileRemoved",
	PartWritten:   "PartWritten",
	PartMerged:    "PartMerged",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the mirror or the chunker.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // local path for files and parts, remote path for listings
	Size      int64  // bytes written (files, parts) or entry count (DirListed)
	Index     int    // part index (PartWritten, PartMerged)
	Reason    string // why a file was skipped
	Error     error
}

// Emit stamps e and sends it on ch without blocking. A nil channel drops the
// event.
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
