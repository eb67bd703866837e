package ui

import (
	"fmt"

	"github.com/bamsammich/lfskit/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 12  size 1.2 GB  avg 41 MB/s  time 31s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	return fmt.Sprintf("done %s  %s", summaryIcon(snap), summaryBody(snap))
}

func summaryIcon(snap stats.Snapshot) string {
	if snap.FilesFailed > 0 {
		return "✗"
	}
	return "✓"
}

func summaryBody(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.Bytes()) / snap.Elapsed.Seconds()
	}

	base := fmt.Sprintf("files %s  size %s  avg %s  time %s",
		FormatCount(snap.Files()),
		FormatBytes(snap.Bytes()),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if parts := snap.PartsWritten + snap.PartsMerged; parts > 0 {
		base += fmt.Sprintf("  parts %s", FormatCount(parts))
	}
	if snap.FilesSkipped > 0 {
		base += fmt.Sprintf("  skipped %s", FormatCount(snap.FilesSkipped))
	}

	base += fmt.Sprintf("  errors %d", snap.FilesFailed)

	return base
}
