package parser

import (
	"regexp"
	"strings"
)

var (
	parenGroup   = regexp.MustCompile(`\([^()]*\)`)
	bracketGroup = regexp.MustCompile(`\[[^\[\]]*\]`)
	braceGroup   = regexp.MustCompile(`\{[^{}]*\}`)
)

// stripNested removes innermost (), [] and {} groups until nothing changes,
// leaving only the text that belongs to the enclosing literal itself.
func stripNested(s string) string {
	for {
		next := parenGroup.ReplaceAllString(s, "")
		next = bracketGroup.ReplaceAllString(next, "")
		next = braceGroup.ReplaceAllString(next, "")
		if next == s {
			return s
		}
		s = next
	}
}

// parenDepth counts unmatched "(" in s. Negative means more closers.
func parenDepth(s string) int {
	return strings.Count(s, "(") - strings.Count(s, ")")
}

// braceLiterals returns the contents of each top-level {...} group in s,
// without the delimiters. An unclosed group runs to the end of s.
func braceLiterals(s string) []string {
	var out []string
	depth, start := 0, -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, s[start:i])
				start = -1
			}
		}
	}
	if depth > 0 && start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// blankStringValues replaces quoted string literals with empty quotes unless
// they are hash-rocket keys ('key' => ...), so delimiters and key-like text
// inside values cannot be mistaken for structure. A quote with no closer on
// the same line is kept as a plain character.
func blankStringValues(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '"' && c != '\'' {
			b.WriteByte(c)
			continue
		}
		end := closingQuote(s, i)
		if end < 0 {
			b.WriteByte(c)
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(s[end+1:], " \t"), "=>") {
			b.WriteString(s[i : end+1])
		} else {
			b.WriteByte(c)
			b.WriteByte(c)
		}
		i = end
	}
	return b.String()
}

func closingQuote(s string, open int) int {
	q := s[open]
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\n':
			return -1
		case q:
			return j
		}
	}
	return -1
}
