package ui

import (
	"fmt"

	"github.com/bamsammich/tcat/internal/stats"
)

// completionSummary builds the final summary line from a snapshot.
// Format: done ✓  files 48,917  size 2.1 GiB  avg 641 MiB/s  time 3m 17s  skipped 3  errors 0
func completionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesHashed) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.FilesFailed > 0 {
		icon = "✗"
	}

	return fmt.Sprintf("done %s  files %s  size %s  avg %s  time %s  skipped %s  errors %s",
		icon,
		FormatCount(snap.FilesHashed),
		FormatBytes(snap.BytesHashed),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
		FormatCount(snap.FilesSkipped),
		FormatCount(snap.FilesFailed),
	)
}
