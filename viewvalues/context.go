package viewvalues

import (
	"sort"
)

// HelperFunc produces a helper value. It is called on every lookup so the
// value reflects the handler's state at render time.
type HelperFunc func() any

// HelperSource resolves helper names to functions, typically backed by the
// handler that builds the context.
type HelperSource interface {
	Helper(name string) (HelperFunc, bool)
}

// Helpers is a map-backed HelperSource.
type Helpers map[string]HelperFunc

// Helper implements HelperSource.
func (h Helpers) Helper(name string) (HelperFunc, bool) {
	fn, ok := h[name]
	return fn, ok
}

type entry struct {
	value  any
	helper HelperFunc
}

// Context is the read-only set of values a template may access. It is
// immutable once built.
type Context struct {
	entries  map[string]entry
	accessor string
}

// Build creates a Context from explicit data and a list of helper names
// resolved through src. Listing the same helper twice is harmless; a helper
// that is also a data key, or that src cannot resolve, is an error.
func Build(src HelperSource, data map[string]any, helpers ...string) (*Context, error) {
	ctx := &Context{
		entries:  make(map[string]entry, len(data)+len(helpers)),
		accessor: InstanceVariableName(),
	}
	for k, v := range data {
		ctx.entries[k] = entry{value: v}
	}

	seen := make(map[string]bool, len(helpers))
	for _, name := range helpers {
		if seen[name] {
			continue
		}
		seen[name] = true

		if _, exists := data[name]; exists {
			return nil, &KeyError{Kind: ErrConflictingKey, Key: name, Accessor: ctx.accessor}
		}
		var fn HelperFunc
		ok := false
		if src != nil {
			fn, ok = src.Helper(name)
		}
		if !ok || fn == nil {
			return nil, &KeyError{Kind: ErrUndefinedHelper, Key: name, Accessor: ctx.accessor}
		}
		ctx.entries[name] = entry{helper: fn}
	}
	return ctx, nil
}

// Get returns the value for key, evaluating helpers at call time.
// Templates can call it directly: {{ .ViewValues.Get "user" }}.
func (c *Context) Get(key string) (any, error) {
	e, ok := c.entries[key]
	if !ok {
		return nil, &KeyError{Kind: ErrUnknownKey, Key: key, Accessor: c.accessor}
	}
	if e.helper != nil {
		return e.helper(), nil
	}
	return e.value, nil
}

// Has reports whether key was declared as data or helper.
func (c *Context) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Keys returns every declared key in ascending order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Empty reports whether nothing was declared.
func (c *Context) Empty() bool {
	return len(c.entries) == 0
}
