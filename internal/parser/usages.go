package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// ignoredMethods are generic delegation calls on the accessor; they never
// name a declared key.
var ignoredMethods = map[string]bool{
	"try":         true,
	"send":        true,
	"public_send": true,
}

// allowListComment captures the free text of "# use: ..." comments.
var allowListComment = regexp.MustCompile(`(?m)#\s*use:\s*(.*)$`)

// Usage is what a set of views reads through the accessor.
type Usage struct {
	Keys KeySet
	// Skip is set when any view carries the skip directive.
	Skip bool
}

// Merge adds the keys and skip flag of o to u.
func (u *Usage) Merge(o Usage) {
	u.Keys.Merge(o.Keys)
	u.Skip = u.Skip || o.Skip
}

// UsageParser extracts accessor references for one accessor name.
type UsageParser struct {
	accessor string
	ref      *regexp.Regexp
	path     *regexp.Regexp
}

// NewUsageParser builds a parser for "@<accessor>.<key>" references.
func NewUsageParser(accessor string) *UsageParser {
	prefix := "@" + regexp.QuoteMeta(accessor) + `\.`
	return &UsageParser{
		accessor: accessor,
		ref:      regexp.MustCompile(prefix + `(\w[\w!?]*)`),
		path:     regexp.MustCompile(prefix + `(\w[\w!?.]*)`),
	}
}

// Accessor returns the accessor name the parser matches.
func (p *UsageParser) Accessor() string {
	return p.accessor
}

// Parse extracts used keys from one view's content. Nested access such as
// @vv.post.title counts as "post"; keys listed in "# use:" comments count
// by their first path segment.
func (p *UsageParser) Parse(content string) Usage {
	usage := Usage{Keys: make(KeySet)}

	for _, m := range p.ref.FindAllStringSubmatch(content, -1) {
		if ignoredMethods[m[1]] {
			continue
		}
		usage.Keys.Add(m[1])
	}

	for _, c := range allowListComment.FindAllStringSubmatch(content, -1) {
		for _, m := range p.path.FindAllStringSubmatch(c[1], -1) {
			first, _, _ := strings.Cut(m[1], ".")
			if first != "" {
				usage.Keys.Add(first)
			}
		}
	}

	usage.Skip = strings.Contains(content, SkipDirective)
	return usage
}

// ParseFile parses a single view. A view that does not exist yields an empty
// usage; any other read failure is returned.
func (p *UsageParser) ParseFile(path string) (Usage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Usage{Keys: make(KeySet)}, nil
		}
		return Usage{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return p.Parse(string(content)), nil
}
