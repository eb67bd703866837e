// Package chunk splits large files into fixed-size sequential part files and
// merges them back. Part files are named "<base>.part<N>" with N counting
// from zero in write order and live next to the original.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/localfs"
	"github.com/bamsammich/lfskit/internal/platform"
	"github.com/bamsammich/lfskit/internal/size"
	"github.com/bamsammich/lfskit/internal/stats"
)

// DefaultPartSizeMB is the part size used when none is given.
const DefaultPartSizeMB = 90

// ErrInvalidPartSize is returned for a part size that is zero or negative.
var ErrInvalidPartSize = errors.New("part size must be positive")

// Config wires a Chunker to progress reporting. The zero value is usable.
type Config struct {
	Events chan<- event.Event
	Stats  stats.Writer
}

// Chunker performs split and merge operations. Operations run one at a time
// on the calling goroutine.
type Chunker struct {
	events chan<- event.Event
	stats  stats.Writer
}

// New creates a Chunker.
func New(cfg Config) *Chunker {
	st := cfg.Stats
	if st == nil {
		st = stats.Discard
	}
	return &Chunker{events: cfg.Events, stats: st}
}

// Split splits the file at path into parts of partSizeMB mebibytes.
func Split(ctx context.Context, path string, partSizeMB int) error {
	return New(Config{}).Split(ctx, path, partSizeMB)
}

// SplitBytes splits the file at path into parts of partSize bytes.
func SplitBytes(ctx context.Context, path string, partSize int64) error {
	return New(Config{}).SplitBytes(ctx, path, partSize)
}

// Merge reassembles the parts of basePath into basePath.
func Merge(ctx context.Context, basePath string) (string, error) {
	return New(Config{}).Merge(ctx, basePath)
}

// ProcessBatch splits or merges every path in order.
func ProcessBatch(ctx context.Context, paths []string, mode Mode, partSizeMB int) error {
	return New(Config{}).ProcessBatch(ctx, paths, mode, partSizeMB)
}

// Split splits the file at path into parts of partSizeMB mebibytes and
// removes the original. See SplitBytes.
func (c *Chunker) Split(ctx context.Context, path string, partSizeMB int) error {
	if partSizeMB <= 0 {
		return fmt.Errorf("%w: %d MB", ErrInvalidPartSize, partSizeMB)
	}
	return c.SplitBytes(ctx, path, int64(partSizeMB)*size.MiB)
}

// SplitBytes splits the file at path into parts of partSize bytes (the last
// part may be shorter) written as "<path>.part0", "<path>.part1", ..., then
// removes the original.
//
// It does nothing when any sibling name starts with "<base>.part" or when
// path does not exist, so a repeated split is harmless. An empty file yields a single
// empty part. If writing fails, the parts written so far are removed and
// the original is kept.
func (c *Chunker) SplitBytes(ctx context.Context, path string, partSize int64) error {
	if partSize <= 0 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidPartSize, partSize)
	}

	existing, err := partSiblings(path)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Debug("parts already exist, skipping split", "path", path, "siblings", existing)
		c.skip(path, "already split")
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("file missing, skipping split", "path", path)
			c.skip(path, "missing")
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("split %s: not a regular file", path)
	}

	written, err := c.writeParts(ctx, path, info, partSize)
	if err != nil {
		c.stats.AddFilesFailed(1)
		event.Emit(c.events, event.Event{Type: event.FileFailed, Path: path, Error: err})
		for _, p := range written {
			os.Remove(p) //nolint:errcheck // best-effort rollback
		}
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s after split: %w", path, err)
	}

	slog.Info("split", "path", path, "parts", len(written), "size", info.Size())
	c.stats.AddFilesSplit(1)
	event.Emit(c.events, event.Event{Type: event.FileCompleted, Path: path, Size: info.Size()})
	event.Emit(c.events, event.Event{Type: event.FileRemoved, Path: path})
	return nil
}

// writeParts writes every part of path and returns the paths written.
func (c *Chunker) writeParts(ctx context.Context, path string, info os.FileInfo, partSize int64) ([]string, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	fs := localfs.New(filepath.Dir(path))
	base := filepath.Base(path)
	total := info.Size()

	var written []string
	var offset int64
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		length := min(partSize, total-offset)
		name := PartName(base, index)

		tmp, err := fs.CreateTemp(name, info.Mode().Perm())
		if err != nil {
			return written, err
		}
		result, err := platform.CopyRange(platform.CopyRangeParams{
			Src:       src,
			Dst:       tmp.File,
			SrcOffset: offset,
			Length:    length,
		})
		if err == nil && result.BytesWritten != length {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			tmp.Abort()
			return written, fmt.Errorf("write %s: %w", fs.AbsPath(name), err)
		}
		if err := tmp.Commit(); err != nil {
			return written, err
		}
		written = append(written, fs.AbsPath(name))

		slog.Debug("wrote part", "part", fs.AbsPath(name), "bytes", length, "method", result.Method)
		c.stats.AddPartsWritten(1)
		c.stats.AddBytesChunked(length)
		event.Emit(c.events, event.Event{
			Type:  event.PartWritten,
			Path:  fs.AbsPath(name),
			Size:  length,
			Index: index,
		})

		offset += length
		if offset >= total {
			return written, nil
		}
	}
}

// Merge concatenates the parts of basePath in index order into basePath,
// replacing any file already there, then removes the parts. It returns
// basePath whether or not there was anything to merge.
func (c *Chunker) Merge(ctx context.Context, basePath string) (string, error) {
	parts, err := ListParts(basePath)
	if err != nil {
		return basePath, err
	}
	if len(parts) == 0 {
		slog.Debug("no parts, skipping merge", "path", basePath)
		c.skip(basePath, "no parts")
		return basePath, nil
	}
	if !contiguous(parts) {
		slog.Warn("part sequence has gaps", "path", basePath,
			"parts", len(parts), "last", parts[len(parts)-1].Index)
	}

	total, err := c.writeMerged(ctx, basePath, parts)
	if err != nil {
		c.stats.AddFilesFailed(1)
		event.Emit(c.events, event.Event{Type: event.FileFailed, Path: basePath, Error: err})
		return basePath, err
	}

	for _, p := range parts {
		if err := os.Remove(p.Path); err != nil {
			return basePath, fmt.Errorf("remove part %s: %w", p.Path, err)
		}
		event.Emit(c.events, event.Event{Type: event.FileRemoved, Path: p.Path})
	}

	slog.Info("merged", "path", basePath, "parts", len(parts), "size", total)
	c.stats.AddFilesMerged(1)
	event.Emit(c.events, event.Event{Type: event.FileCompleted, Path: basePath, Size: total})
	return basePath, nil
}

func (c *Chunker) writeMerged(ctx context.Context, basePath string, parts []Part) (int64, error) {
	info, err := os.Stat(parts[0].Path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", parts[0].Path, err)
	}
	fs := localfs.New(filepath.Dir(basePath))
	tmp, err := fs.CreateTemp(filepath.Base(basePath), info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	var offset int64
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			tmp.Abort()
			return offset, err
		}
		n, err := appendPart(tmp.File, p.Path, offset)
		if err != nil {
			tmp.Abort()
			return offset, err
		}
		offset += n

		c.stats.AddPartsMerged(1)
		c.stats.AddBytesChunked(n)
		event.Emit(c.events, event.Event{
			Type:  event.PartMerged,
			Path:  p.Path,
			Size:  n,
			Index: p.Index,
		})
	}

	if err := tmp.Commit(); err != nil {
		return offset, err
	}
	return offset, nil
}

// appendPart copies the whole part file at partPath into dst at offset.
func appendPart(dst *os.File, partPath string, offset int64) (int64, error) {
	src, err := os.Open(partPath)
	if err != nil {
		return 0, fmt.Errorf("open part %s: %w", partPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat part %s: %w", partPath, err)
	}

	result, err := platform.CopyRange(platform.CopyRangeParams{
		Src:       src,
		Dst:       dst,
		DstOffset: offset,
		Length:    info.Size(),
	})
	if err == nil && result.BytesWritten != info.Size() {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return result.BytesWritten, fmt.Errorf("copy part %s: %w", partPath, err)
	}
	return result.BytesWritten, nil
}

// ProcessBatch splits (with partSizeMB) or merges every path in order. The
// first failure stops the batch and is returned with the failing path;
// later paths are not touched. partSizeMB is ignored when merging.
func (c *Chunker) ProcessBatch(ctx context.Context, paths []string, mode Mode, partSizeMB int) error {
	if mode == ModeSplit && partSizeMB <= 0 {
		return fmt.Errorf("%w: %d MB", ErrInvalidPartSize, partSizeMB)
	}
	return c.ProcessBatchBytes(ctx, paths, mode, int64(partSizeMB)*size.MiB)
}

// ProcessBatchBytes is ProcessBatch with the part size given in bytes.
func (c *Chunker) ProcessBatchBytes(ctx context.Context, paths []string, mode Mode, partSize int64) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch mode {
		case ModeSplit:
			err = c.SplitBytes(ctx, path, partSize)
		case ModeMerge:
			_, err = c.Merge(ctx, path)
		default:
			return fmt.Errorf("unknown mode %d", mode)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", mode, path, err)
		}
	}
	return nil
}

func (c *Chunker) skip(path, reason string) {
	c.stats.AddFilesSkipped(1)
	event.Emit(c.events, event.Event{Type: event.FileSkipped, Path: path, Reason: reason})
}
