package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// DefaultControllerGlobs locate controller sources relative to the project
// root: the application tree and its test-fixture mirror.
var DefaultControllerGlobs = []string{
	"app/controllers/**/*_controller.rb",
	"spec/app/controllers/**/*_controller.rb",
}

// FileInfo describes a discovered controller source.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // slash-separated path relative to the scan root
}

// Scanner discovers controller files and applies the --include filter
type Scanner struct {
	globs   []string
	include string
}

// NewScanner creates a scanner over the default controller globs
func NewScanner() *Scanner {
	return &Scanner{globs: DefaultControllerGlobs}
}

// SetInclude restricts results to paths matching pattern. A pattern with
// glob metacharacters is matched against the relative path or any trailing
// part of it; anything else is a plain substring match.
func (s *Scanner) SetInclude(pattern string) {
	s.include = pattern
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// shouldInclude checks a relative slash path against the include pattern
func (s *Scanner) shouldInclude(relPath string) bool {
	if s.include == "" {
		return true
	}
	if !hasMeta(s.include) {
		return strings.Contains(relPath, s.include)
	}
	if matched, _ := doublestar.Match(s.include, relPath); matched {
		return true
	}
	matched, _ := doublestar.Match("**/"+s.include, relPath)
	return matched
}

// Scan expands every glob under rootPath. Results are sorted within each
// glob, de-duplicated, and keep glob order.
func (s *Scanner) Scan(rootPath string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)

	for _, glob := range s.globs {
		matches, err := doublestar.Glob(filepath.Join(rootPath, filepath.FromSlash(glob)))
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", glob, err)
		}
		sort.Strings(matches)

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			rel, err := filepath.Rel(rootPath, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			if !s.shouldInclude(rel) {
				continue
			}
			files = append(files, FileInfo{Path: path, RelPath: rel})
		}
	}
	return files, nil
}
