package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/stats"
)

const progressInterval = 5 * time.Second

// plainPresenter outputs one line per completed file or part to w, and a
// periodic progress line to errW.
type plainPresenter struct {
	w        io.Writer
	errW     io.Writer
	stats    stats.ReadTicker
	root     string
	progress bool
	styled   bool
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var ticks int
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			ticks++
			if p.progress && ticks%int(progressInterval/time.Second) == 0 {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	path := StripRoot(p.root, ev.Path)
	switch ev.Type {
	case event.FileCompleted:
		speed := p.stats.RollingSpeed(5)
		fmt.Fprintf(p.w, "%s  %s  %s\n", path, FormatBytes(ev.Size), FormatRate(speed))
	case event.FileFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  failed  %s\n", path, errMsg)
	case event.FileSkipped:
		if ev.Reason != "" {
			fmt.Fprintf(p.w, "%s  skipped (%s)\n", path, ev.Reason)
		} else {
			fmt.Fprintf(p.w, "%s  skipped\n", path)
		}
	case event.FileRemoved:
		fmt.Fprintf(p.w, "remove: %s\n", path)
	case event.PartWritten:
		fmt.Fprintf(p.w, "  + %s  %s\n", filepath.Base(ev.Path), FormatBytes(ev.Size))
	case event.PartMerged:
		fmt.Fprintf(p.w, "  < %s  %s\n", filepath.Base(ev.Path), FormatBytes(ev.Size))
	case event.DirListed, event.FileStarted:
		// silent in plain mode
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "progress: %s written  %s files",
		FormatBytes(snap.Bytes()),
		FormatCount(snap.Files()),
	)
	if snap.DirsListed > 0 {
		fmt.Fprintf(&b, "  %s dirs", FormatCount(snap.DirsListed))
	}
	if snap.PartsWritten+snap.PartsMerged > 0 {
		fmt.Fprintf(&b, "  %s parts", FormatCount(snap.PartsWritten+snap.PartsMerged))
	}
	fmt.Fprintf(&b, "  %s\n", FormatRate(p.stats.RollingSpeed(10)))
	io.WriteString(p.errW, b.String()) //nolint:errcheck // progress is best-effort
}

func (p *plainPresenter) Summary() string {
	snap := p.stats.Snapshot()
	if p.styled {
		return StyledSummary(snap)
	}
	return CompletionSummary(snap)
}
