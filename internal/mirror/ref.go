package mirror

import (
	"fmt"
	"net/url"
	"strings"
)

// Ref identifies a folder in a hosted repository. Branch and Folder may be
// empty when the argument did not carry them.
type Ref struct {
	Repo   string // owner/name
	Branch string
	Folder string
}

// ParseRef parses a repository argument.
//
// Supported formats:
//   - owner/name
//   - https://github.com/owner/name
//   - https://github.com/owner/name/tree/branch/path/to/folder
//   - github.com/owner/name/tree/branch/path/to/folder
//
// In the tree form the segment after "tree" is taken as the branch, so
// branch names containing "/" must be given with --branch instead.
func ParseRef(arg string) (Ref, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Ref{}, fmt.Errorf("empty repository")
	}

	p := arg
	if strings.Contains(arg, "://") {
		u, err := url.Parse(arg)
		if err != nil {
			return Ref{}, fmt.Errorf("parse repository URL %q: %w", arg, err)
		}
		if u.Host == "" {
			return Ref{}, fmt.Errorf("repository URL %q has no host", arg)
		}
		p = u.Path
	} else if strings.HasPrefix(arg, "github.com/") {
		p = strings.TrimPrefix(arg, "github.com/")
	}

	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("repository %q: want owner/name", arg)
	}

	ref := Ref{Repo: parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")}
	rest := parts[2:]
	if len(rest) == 0 {
		return ref, nil
	}

	// A plain "owner/name" with extra segments is ambiguous; only the URL
	// tree form carries a branch and folder.
	if rest[0] != "tree" && rest[0] != "blob" {
		return Ref{}, fmt.Errorf("repository %q: want owner/name or a /tree/<branch>/<folder> URL", arg)
	}
	if len(rest) >= 2 {
		ref.Branch = rest[1]
	}
	if len(rest) >= 3 {
		ref.Folder = strings.Join(rest[2:], "/")
	}
	return ref, nil
}

func (r Ref) String() string {
	s := r.Repo
	if r.Folder != "" {
		s += ":" + r.Folder
	}
	if r.Branch != "" {
		s += "@" + r.Branch
	}
	return s
}
