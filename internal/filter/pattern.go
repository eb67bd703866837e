package filter

import (
	"errors"
	"strings"

	"github.com/gobwas/glob"
)

// pattern is a compiled rule glob.
//
// Syntax follows rsync: "*" matches within one path segment, "**" matches
// across segments, "?" matches one non-separator character, "[...]" is a
// character class ("[!...]" negates) and "{a,b}" an alternation. A leading
// "/" or any inner "/" anchors the pattern at the folder root; otherwise it
// may match any trailing run of segments, and a leading "**/" means the
// same. A trailing "/" matches directories only.
type pattern struct {
	source   string
	g        glob.Glob
	anchored bool
	dirOnly  bool
}

func compile(expr string) (*pattern, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty pattern")
	}
	p := &pattern{source: expr}

	body := expr
	if trimmed, ok := strings.CutSuffix(body, "/"); ok {
		p.dirOnly = true
		body = trimmed
	}
	p.anchored = strings.Contains(body, "/")
	body = strings.TrimPrefix(body, "/")
	if rest, ok := strings.CutPrefix(body, "**/"); ok {
		p.anchored = false
		body = rest
	}

	g, err := glob.Compile(body, '/')
	if err != nil {
		return nil, err
	}
	p.g = g
	return p, nil
}

func (p *pattern) match(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if p.anchored {
		return p.g.Match(relPath)
	}
	for s := relPath; ; {
		if p.g.Match(s) {
			return true
		}
		i := strings.IndexByte(s, '/')
		if i < 0 {
			return false
		}
		s = s[i+1:]
	}
}
