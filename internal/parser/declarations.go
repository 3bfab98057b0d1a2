package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	// BuilderMarker starts a declaration call site inside an action.
	BuilderMarker = "build_view_values"
	// SkipDirective in an action body or one of its views excludes the
	// action from checking.
	SkipDirective = "skip:view_values"
)

var (
	actionDef = regexp.MustCompile(`^\s*def\s+([A-Za-z0-9_!?]+)`)
	blockEnd  = regexp.MustCompile(`^\s*end\s*$`)

	// { key: value } and { 'key' => value }, anchored so only keys that
	// start an entry of the outer literal match. A label followed by a
	// second colon is a constant path (A::B) and is dropped in labelKeys.
	labelKey  = regexp.MustCompile(`(?:^|[,{])\s*([A-Za-z_]\w*[!?]?)\s*:`)
	rocketKey = regexp.MustCompile(`(?:^|[,{])\s*['"]([A-Za-z_]\w*[!?]?)['"]\s*=>`)

	// helpers: %i[a b] or helpers: [:a, 'b']
	helpersArg  = regexp.MustCompile(`helpers:\s*(%[iIwW]\[[^\]]*\]|\[[^\]]*\])`)
	bareToken   = regexp.MustCompile(`[A-Za-z_]\w*[!?]?`)
	quotedToken = regexp.MustCompile(`[:'"]([A-Za-z_]\w*[!?]?)`)
)

// Declarations holds the keys each action of one controller declares.
type Declarations struct {
	// Actions maps an action name to its declared keys. Only actions with
	// at least one call site have an entry.
	Actions map[string]KeySet
	// Order lists actions in the order their first call site appears.
	Order []string
	// Skipped marks actions whose body carries the skip directive.
	Skipped map[string]bool
}

func newDeclarations() *Declarations {
	return &Declarations{
		Actions: make(map[string]KeySet),
		Skipped: make(map[string]bool),
	}
}

func (d *Declarations) add(action string, keys KeySet) {
	set, ok := d.Actions[action]
	if !ok {
		set = make(KeySet)
		d.Actions[action] = set
		d.Order = append(d.Order, action)
	}
	set.Merge(keys)
}

// ParseDeclarationsFile reads a controller source file and extracts its
// declarations.
func ParseDeclarationsFile(path string) (*Declarations, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return ParseDeclarations(string(content)), nil
}

// ParseDeclarations scans controller source line by line. A "def" line opens
// an action and a bare "end" line closes it; nested blocks are not tracked.
// Call sites spanning several lines are accumulated until their parentheses
// balance or the source ends. Malformed input yields whatever was gathered.
func ParseDeclarations(src string) *Declarations {
	decls := newDeclarations()
	lines := strings.SplitAfter(src, "\n")
	current := ""

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if m := actionDef.FindStringSubmatch(line); m != nil {
			current = m[1]
		} else if blockEnd.MatchString(line) {
			current = ""
		}
		if current == "" {
			continue
		}
		if strings.Contains(line, SkipDirective) {
			decls.Skipped[current] = true
		}

		idx := strings.Index(line, BuilderMarker)
		if idx < 0 {
			continue
		}
		call := line[idx:]
		for parenDepth(blankStringValues(call)) > 0 && i+1 < len(lines) {
			i++
			call += lines[i]
		}
		decls.add(current, callKeys(call))
	}
	return decls
}

// labelKeys adds every "key:" label of body. The match stops at the colon
// so the separator of a valueless entry ({ a:, b: }) can anchor the next one.
func labelKeys(body string, keys KeySet) {
	for _, m := range labelKey.FindAllStringSubmatchIndex(body, -1) {
		if end := m[1]; end < len(body) && body[end] == ':' {
			continue
		}
		keys.Add(body[m[2]:m[3]])
	}
}

// callKeys extracts data and helper keys from one builder call.
func callKeys(call string) KeySet {
	keys := make(KeySet)

	for _, lit := range braceLiterals(blankStringValues(call)) {
		body := stripNested(lit)
		labelKeys(body, keys)
		for _, m := range rocketKey.FindAllStringSubmatch(body, -1) {
			keys.Add(m[1])
		}
	}

	for _, m := range helpersArg.FindAllStringSubmatch(call, -1) {
		list := m[1]
		if strings.HasPrefix(list, "%") {
			for _, tok := range bareToken.FindAllString(list[3:len(list)-1], -1) {
				keys.Add(tok)
			}
			continue
		}
		for _, tm := range quotedToken.FindAllStringSubmatch(list, -1) {
			keys.Add(tm[1])
		}
	}
	return keys
}
