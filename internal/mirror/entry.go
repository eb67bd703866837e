package mirror

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// EntryType is the kind of a listing entry.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDir       EntryType = "dir"
	TypeSymlink   EntryType = "symlink"
	TypeSubmodule EntryType = "submodule"
)

// Entry is one item of a contents listing.
type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        EntryType `json:"type"`
	DownloadURL string    `json:"download_url"`
	Size        int64     `json:"size"`
}

// ErrUnsafePath is returned when a remote path would land outside the
// destination root.
var ErrUnsafePath = errors.New("remote path escapes destination")

// LocalPath maps a remote entry path onto the local destination root. The
// first slash-separated segment is dropped when the path has more than one,
// so "docs/guide/intro.md" lands at <root>/guide/intro.md and a bare
// "README.md" at <root>/README.md. Collisions are not checked.
func LocalPath(root, remotePath string) (string, error) {
	rel := remotePath
	if i := strings.IndexByte(remotePath, '/'); i >= 0 {
		rel = remotePath[i+1:]
	}

	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, remotePath)
	}
	return filepath.Join(root, local), nil
}
