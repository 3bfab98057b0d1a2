package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ookam/view-values/viewvalues"
)

// Environment toggles, read after .env is loaded
const (
	EnvInstanceVar = "VIEW_VALUES_INSTANCE_VAR"
	EnvCheckUnused = "VIEW_VALUES_CHECK_UNUSED"
	EnvVerbose     = "VIEW_VALUES_VERBOSE"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidRoot   = errors.New("invalid root")
)

// Options is the fully resolved configuration of one check run
type Options struct {
	Root        string
	InstanceVar string
	CheckUnused bool
	Include     string
	Format      string
	OnlyAction  string
	Verbose     bool
	NoColor     bool
	Debug       bool
}

// DefaultOptions returns built-in defaults, taking the accessor name from
// the process-wide runtime configuration
func DefaultOptions() Options {
	return Options{
		Root:        ".",
		InstanceVar: viewvalues.InstanceVarName(),
		Format:      FormatText,
	}
}

// ApplyFile layers settings from a loaded config file
func (o *Options) ApplyFile(cfg *Config) {
	if cfg == nil {
		return
	}
	if name := strings.TrimPrefix(strings.TrimSpace(cfg.InstanceVar), "@"); name != "" {
		o.InstanceVar = name
	}
	o.CheckUnused = o.CheckUnused || cfg.CheckUnused
	o.Verbose = o.Verbose || cfg.Verbose
}

// LoadDotEnv loads <root>/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(root string) error {
	err := godotenv.Load(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ApplyEnv layers the VIEW_VALUES_* environment toggles
func (o *Options) ApplyEnv() error {
	if name := strings.TrimSpace(os.Getenv(EnvInstanceVar)); name != "" {
		o.InstanceVar = strings.TrimPrefix(name, "@")
	}
	for env, dst := range map[string]*bool{
		EnvCheckUnused: &o.CheckUnused,
		EnvVerbose:     &o.Verbose,
	} {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", env, raw, err)
		}
		*dst = v
	}
	return nil
}

// Validate resolves Root to an absolute directory and checks the format
func (o *Options) Validate() error {
	switch o.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w %q (want text or json)", ErrInvalidFormat, o.Format)
	}

	absPath, err := filepath.Abs(o.Root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, absPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, absPath)
	}
	o.Root = absPath

	o.InstanceVar = strings.TrimPrefix(strings.TrimSpace(o.InstanceVar), "@")
	if o.InstanceVar == "" {
		o.InstanceVar = viewvalues.DefaultInstanceVarName
	}
	return nil
}
