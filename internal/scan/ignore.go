package scan

import (
	"fmt"
	"path/filepath"

	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides which walked paths are left out of an archive.
type Matcher struct {
	root     string // absolute
	patterns []string
	files    map[string]bool // absolute paths
	repo     gitignore.GitIgnore
}

// NewMatcher creates a matcher for the tree at root. Patterns are
// filepath.Match globs applied to base names; a matching directory is
// pruned. With useGitignore, .gitignore files under root are honored.
func NewMatcher(root string, patterns []string, useGitignore bool) (*Matcher, error) {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	m := &Matcher{
		root:     abs,
		patterns: patterns,
		files:    make(map[string]bool),
	}

	if useGitignore {
		repo, err := gitignore.NewRepository(root)
		if err != nil {
			return nil, fmt.Errorf("loading .gitignore rules: %w", err)
		}
		m.repo = repo
	}

	return m, nil
}

// ExcludeFile leaves out the regular files at the given paths. Relative
// paths are taken from the working directory.
func (m *Matcher) ExcludeFile(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			m.files[abs] = true
		}
	}
}

// Match reports whether rel, a path relative to the matcher's root, is
// excluded.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if !isDir && m.files[filepath.Join(m.root, rel)] {
		return true
	}

	base := filepath.Base(rel)

	for _, pattern := range m.patterns {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	if m.repo != nil {
		if match := m.repo.Relative(rel, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return false
}
