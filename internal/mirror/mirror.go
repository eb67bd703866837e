// Package mirror copies a folder of a hosted repository to local disk using
// the contents listing API. Traversal is sequential and depth-first: each
// entry is fully handled, and each directory's subtree fully mirrored,
// before the next entry in listing order.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/filter"
	"github.com/bamsammich/lfskit/internal/localfs"
	"github.com/bamsammich/lfskit/internal/stats"
)

const (
	DefaultAPIBaseURL = "https://api.github.com"
	DefaultBranch     = "main"
	DefaultMaxDepth   = 64
)

// Config describes a mirror operation.
type Config struct {
	HTTPClient *http.Client
	Stats      *stats.Collector
	Events     chan<- event.Event
	Repository string // owner/name
	Folder     string
	Branch     string
	APIBaseURL string
	Dest       string
	Token      string
	UserAgent  string
	Timeout    time.Duration // per-request; 0 means none
	BWLimit    int64         // bytes/sec; 0 means unlimited
	MaxDepth   int
	DryRun     bool

	// Filter selects which entries are mirrored, matched against paths
	// relative to Folder. Excluded directories are not listed. Nil keeps
	// everything.
	Filter *filter.Chain
}

// Result is the outcome of a mirror operation.
type Result struct {
	Stats stats.Snapshot
	Err   error
}

// Run mirrors cfg.Folder of cfg.Repository into cfg.Dest, blocking until
// complete. The first error aborts the whole run; files written before it
// are left in place.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	if cfg.Repository == "" {
		return Result{Stats: collector.Snapshot(), Err: errors.New("repository is required")}
	}

	m := newMirrorer(cfg, collector)
	err := m.run(ctx)
	return Result{Stats: collector.Snapshot(), Err: err}
}

type mirrorer struct {
	client  *Client
	fs      *localfs.FS
	stats   *stats.Collector
	events  chan<- event.Event
	visited map[uint64]struct{}
	cfg     Config
}

func newMirrorer(cfg Config, collector *stats.Collector) *mirrorer {
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.Dest == "" {
		cfg.Dest = "."
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	opts := ClientOpts{
		HTTPClient: hc,
		BaseURL:    cfg.APIBaseURL,
		Token:      cfg.Token,
		UserAgent:  cfg.UserAgent,
	}
	if cfg.BWLimit > 0 {
		opts.Limiter = NewBWLimiter(cfg.BWLimit)
	}

	return &mirrorer{
		cfg:     cfg,
		client:  NewClient(opts),
		fs:      localfs.New(cfg.Dest),
		stats:   collector,
		events:  cfg.Events,
		visited: make(map[uint64]struct{}),
	}
}

// frame is one directory listing on the traversal stack.
type frame struct {
	path    string
	entries []Entry
	depth   int
	next    int
}

func (m *mirrorer) run(ctx context.Context) error {
	root, err := m.list(ctx, m.cfg.Folder, 0)
	if err != nil {
		return err
	}
	stack := []*frame{root}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		if !m.keep(entry) {
			slog.Debug("excluded by filter", "path", entry.Path)
			m.skip(entry.Path, "excluded")
			continue
		}

		switch entry.Type {
		case TypeFile:
			if err := m.download(ctx, entry); err != nil {
				return err
			}
		case TypeDir:
			if !m.markVisited(entry.Path) {
				slog.Warn("directory listed twice, skipping", "path", entry.Path)
				m.skip(entry.Path, "already visited")
				continue
			}
			child, err := m.list(ctx, entry.Path, top.depth+1)
			if err != nil {
				return err
			}
			stack = append(stack, child)
		default:
			slog.Debug("skipping unsupported entry", "path", entry.Path, "type", entry.Type)
			m.skip(entry.Path, fmt.Sprintf("unsupported type %q", entry.Type))
		}
	}
	return nil
}

func (m *mirrorer) list(ctx context.Context, folder string, depth int) (*frame, error) {
	if depth > m.cfg.MaxDepth {
		return nil, fmt.Errorf("%w (%d) at %q", ErrMaxDepth, m.cfg.MaxDepth, folder)
	}
	if depth == 0 {
		m.markVisited(folder)
	}

	entries, err := m.client.List(ctx, m.cfg.Repository, folder, m.cfg.Branch)
	if err != nil {
		return nil, err
	}

	slog.Debug("listed folder", "path", folder, "entries", len(entries), "depth", depth)
	m.stats.AddDirsListed(1)
	event.Emit(m.events, event.Event{
		Type: event.DirListed,
		Path: folder,
		Size: int64(len(entries)),
	})
	return &frame{path: folder, entries: entries, depth: depth}, nil
}

func (m *mirrorer) download(ctx context.Context, entry Entry) error {
	localPath, err := LocalPath(m.cfg.Dest, entry.Path)
	if err != nil {
		m.fail(entry.Path, err)
		return err
	}
	relPath, err := filepath.Rel(m.cfg.Dest, localPath)
	if err != nil {
		m.fail(entry.Path, err)
		return fmt.Errorf("resolve %s: %w", localPath, err)
	}

	if m.cfg.DryRun {
		slog.Info("would download", "path", entry.Path, "to", localPath)
		m.skip(localPath, "dry run")
		return nil
	}
	if entry.DownloadURL == "" {
		err := fmt.Errorf("file %q has no download URL", entry.Path)
		m.fail(localPath, err)
		return err
	}

	event.Emit(m.events, event.Event{Type: event.FileStarted, Path: localPath, Size: entry.Size})

	if err := m.fs.MkdirAll(filepath.Dir(relPath), 0o755); err != nil {
		m.fail(localPath, err)
		return fmt.Errorf("create directory for %s: %w", localPath, err)
	}

	tmp, err := m.fs.CreateTemp(relPath, 0o644)
	if err != nil {
		m.fail(localPath, err)
		return err
	}

	n, err := m.client.Download(ctx, entry.DownloadURL, tmp)
	if err != nil {
		tmp.Abort()
		m.fail(localPath, err)
		return err
	}
	if err := tmp.Commit(); err != nil {
		m.fail(localPath, err)
		return err
	}

	slog.Debug("downloaded", "path", entry.Path, "to", localPath, "bytes", n)
	m.stats.AddFilesDownloaded(1)
	m.stats.AddBytesDownloaded(n)
	event.Emit(m.events, event.Event{Type: event.FileCompleted, Path: localPath, Size: n})
	return nil
}

// keep reports whether the filter lets entry through.
func (m *mirrorer) keep(entry Entry) bool {
	if m.cfg.Filter.Empty() {
		return true
	}
	if entry.Type != TypeFile && entry.Type != TypeDir {
		return true
	}
	rel := strings.TrimPrefix(entry.Path, strings.Trim(m.cfg.Folder, "/")+"/")
	return m.cfg.Filter.Match(rel, entry.Type == TypeDir, entry.Size)
}

// markVisited records path and reports whether it was new.
func (m *mirrorer) markVisited(path string) bool {
	key := xxhash.Sum64String(path)
	if _, seen := m.visited[key]; seen {
		return false
	}
	m.visited[key] = struct{}{}
	return true
}

func (m *mirrorer) skip(path, reason string) {
	m.stats.AddFilesSkipped(1)
	event.Emit(m.events, event.Event{Type: event.FileSkipped, Path: path, Reason: reason})
}

func (m *mirrorer) fail(path string, err error) {
	m.stats.AddFilesFailed(1)
	event.Emit(m.events, event.Event{Type: event.FileFailed, Path: path, Error: err})
}
