// Package localfs stages writes on the local filesystem through uniquely
// named temp files that are renamed into place on success.
package localfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const tempSuffix = ".lfskit-tmp"

// FS is a local filesystem rooted at a directory. Relative paths passed to
// its methods are resolved against the root.
type FS struct {
	root string
}

// New creates an FS rooted at root.
func New(root string) *FS {
	return &FS{root: root}
}

// Root returns the root directory of this FS.
func (fs *FS) Root() string { return fs.root }

// AbsPath returns the path for relPath joined onto the root.
func (fs *FS) AbsPath(relPath string) string {
	return filepath.Join(fs.root, relPath)
}

// MkdirAll creates a directory and all parents. Existing directories are not
// an error.
func (fs *FS) MkdirAll(relPath string, perm os.FileMode) error {
	return os.MkdirAll(fs.AbsPath(relPath), perm)
}

// CreateTemp creates a temporary file in the same directory as relPath.
// The caller finishes it with Commit or Abort.
func (fs *FS) CreateTemp(relPath string, perm os.FileMode) (*TempFile, error) {
	absPath := fs.AbsPath(relPath)
	dir := filepath.Dir(absPath)
	base := filepath.Base(absPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.New().String()[:8], tempSuffix))

	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, fmt.Errorf("create temp %s: %w", tmpPath, err)
	}
	// OpenFile's perm is masked by the umask.
	if err := f.Chmod(perm); err != nil {
		f.Close()
		os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("chmod temp %s: %w", tmpPath, err)
	}
	return &TempFile{File: f, target: absPath}, nil
}

// Remove deletes a single file.
func (fs *FS) Remove(relPath string) error {
	return os.Remove(fs.AbsPath(relPath))
}

// Exists reports whether relPath exists. Errors other than "not exist" are
// returned as-is.
func (fs *FS) Exists(relPath string) (bool, error) {
	_, err := os.Lstat(fs.AbsPath(relPath))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadDir lists the names of the immediate children of relPath, sorted by
// name. Temp files created by CreateTemp are left out.
func (fs *FS) ReadDir(relPath string) ([]string, error) {
	entries, err := os.ReadDir(fs.AbsPath(relPath))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if IsTempName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// IsTempName reports whether name looks like a temp file made by CreateTemp.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}

// TempFile is a writable temp file that replaces its target on Commit.
type TempFile struct {
	*os.File
	target string
	done   bool
}

// Target returns the path the temp file will be renamed to on Commit.
func (f *TempFile) Target() string { return f.target }

// Commit closes the temp file and renames it over the target, replacing any
// existing file. On failure the temp file is removed.
func (f *TempFile) Commit() error {
	if f.done {
		return nil
	}
	f.done = true

	if err := f.File.Close(); err != nil {
		os.Remove(f.File.Name()) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close %s: %w", f.File.Name(), err)
	}
	if err := os.Rename(f.File.Name(), f.target); err != nil {
		os.Remove(f.File.Name()) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename into %s: %w", f.target, err)
	}
	return nil
}

// Abort closes and removes the temp file. Safe to call after Commit.
func (f *TempFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	f.File.Close()           //nolint:errcheck,gosec // abandoning the file
	os.Remove(f.File.Name()) //nolint:errcheck // best-effort cleanup
}
