package chunk

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bamsammich/lfskit/internal/localfs"
)

const partMarker = ".part"

// Part is one segment file of a split file.
type Part struct {
	Name  string // file name, e.g. "model.bin.part3"
	Path  string // full path
	Index int
}

// PartName returns the file name of part index of base.
func PartName(base string, index int) string {
	return base + partMarker + strconv.Itoa(index)
}

// ListParts returns the part files that sit next to path, ordered by their
// numeric index. Only names of the form "<base>.part<digits>" count, so
// "model.bin.partial" is not a part of "model.bin". A missing directory
// yields no parts.
func ListParts(path string) ([]Part, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	prefix := base + partMarker

	names, err := localfs.New(dir).ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list parts of %s: %w", path, err)
	}

	var parts []Part
	for _, name := range names {
		suffix, ok := strings.CutPrefix(name, prefix)
		if !ok || !isDigits(suffix) {
			continue
		}
		idx, err := strconv.Atoi(suffix)
		if err != nil {
			continue // out of int range; not one of ours
		}
		parts = append(parts, Part{
			Name:  name,
			Path:  filepath.Join(dir, name),
			Index: idx,
		})
	}

	slices.SortFunc(parts, func(a, b Part) int {
		if c := cmp.Compare(a.Index, b.Index); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return parts, nil
}

// partSiblings returns the names next to path that start with
// "<base>.part", numbered or not. Split treats any of them as a sign that
// path was already split, which is looser than ListParts.
func partSiblings(path string) ([]string, error) {
	prefix := filepath.Base(path) + partMarker

	names, err := localfs.New(filepath.Dir(path)).ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list parts of %s: %w", path, err)
	}

	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

// contiguous reports whether parts are numbered 0..n-1 without gaps.
func contiguous(parts []Part) bool {
	for i, p := range parts {
		if p.Index != i {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
