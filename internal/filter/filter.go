// Package filter decides which remote entries a mirror run keeps, using
// ordered rsync-style include/exclude glob rules and size bounds.
package filter

import "fmt"

// Rule is a single include or exclude rule.
type Rule struct {
	Include bool
	pattern *pattern
}

func (r Rule) String() string {
	if r.Include {
		return "+ " + r.pattern.source
	}
	return "- " + r.pattern.source
}

// Chain holds an ordered list of rules plus size bounds. The zero value
// keeps everything.
type Chain struct {
	rules   []Rule
	minSize int64
	maxSize int64
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule.
func (c *Chain) AddExclude(glob string) error {
	return c.add(glob, false)
}

// AddInclude appends an include rule.
func (c *Chain) AddInclude(glob string) error {
	return c.add(glob, true)
}

func (c *Chain) add(glob string, include bool) error {
	p, err := compile(glob)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", glob, err)
	}
	c.rules = append(c.rules, Rule{Include: include, pattern: p})
	return nil
}

// Rules returns the rules in evaluation order.
func (c *Chain) Rules() []Rule {
	return c.rules
}

// SetMinSize skips files smaller than n bytes. Zero disables the bound.
func (c *Chain) SetMinSize(n int64) { c.minSize = n }

// SetMaxSize skips files larger than n bytes. Zero disables the bound.
func (c *Chain) SetMaxSize(n int64) { c.maxSize = n }

// Empty reports whether the chain keeps everything.
func (c *Chain) Empty() bool {
	return c == nil || (len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0)
}

// Match reports whether the entry at relPath (slash-separated, relative to
// the mirrored folder) is kept. Size bounds apply to files only. The first
// matching rule decides; an entry no rule matches is kept.
func (c *Chain) Match(relPath string, isDir bool, size int64) bool {
	if c == nil {
		return true
	}
	if !isDir {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}
	for _, r := range c.rules {
		if r.pattern.match(relPath, isDir) {
			return r.Include
		}
	}
	return true
}
