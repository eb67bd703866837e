package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// AddRule parses one rule line: "+ glob" includes, "- glob" or a bare glob
// excludes.
func (c *Chain) AddRule(line string) error {
	if rest, ok := strings.CutPrefix(line, "+ "); ok {
		return c.AddInclude(strings.TrimSpace(rest))
	}
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return c.AddExclude(strings.TrimSpace(rest))
	}
	return c.AddExclude(line)
}

// LoadFile appends the rules in the file at path. Blank lines and lines
// starting with "#" are ignored.
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	if err := c.Load(f); err != nil {
		return fmt.Errorf("filter file %s: %w", path, err)
	}
	return nil
}

// Load appends the rules read from r.
func (c *Chain) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := c.AddRule(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	return scanner.Err()
}
