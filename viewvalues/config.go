// Package viewvalues is the runtime side of the view-values convention: a
// handler builds an immutable set of named values (and lazily evaluated
// helpers) and its templates read them through a single accessor.
package viewvalues

import "sync"

// DefaultInstanceVarName is the accessor templates use unless configured
// otherwise.
const DefaultInstanceVarName = "view_values"

// Settings holds the process-wide configuration.
type Settings struct {
	// InstanceVarName is the accessor name without the leading "@"
	// (e.g. "view_values", "vv").
	InstanceVarName string
}

var (
	settingsMu sync.RWMutex
	settings   = Settings{InstanceVarName: DefaultInstanceVarName}
)

// Configure mutates the process-wide settings.
func Configure(fn func(*Settings)) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	fn(&settings)
	if settings.InstanceVarName == "" {
		settings.InstanceVarName = DefaultInstanceVarName
	}
}

// Config returns a copy of the current settings.
func Config() Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings
}

// InstanceVarName returns the configured accessor name.
func InstanceVarName() string {
	return Config().InstanceVarName
}

// InstanceVariableName returns the accessor with its sigil, like "@view_values".
func InstanceVariableName() string {
	return "@" + InstanceVarName()
}
