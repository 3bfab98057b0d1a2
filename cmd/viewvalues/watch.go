package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ookam/view-values/internal/config"
	"github.com/ookam/view-values/internal/naming"
	"github.com/ookam/view-values/internal/output"
	"github.com/ookam/view-values/internal/scanner"
	"github.com/spf13/cobra"
)

const watchDebounce = 300 * time.Millisecond

func newWatchCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the check whenever controllers or views change",
		Long: "Run the check, then watch the controller and view directories and re-run it after each change.\n" +
			"Changes to " + config.FileName + " are picked up on the next run. Values already loaded from .env\n" +
			"stay in effect until watch is restarted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, stdout, stderr, func() (config.Options, *config.Config, error) {
				return f.options(cmd)
			})
		},
	}
	bindCheckFlags(cmd, f)
	return cmd
}

// watchDirs returns the existing directories that hold controllers or views
func watchDirs(root string) []string {
	var dirs []string
	for _, glob := range scanner.DefaultControllerGlobs {
		base, _, _ := strings.Cut(glob, "/**")
		dirs = append(dirs, filepath.Join(root, filepath.FromSlash(base)))
	}
	for _, viewRoot := range naming.ViewRoots {
		dirs = append(dirs, filepath.Join(root, filepath.FromSlash(viewRoot)))
	}

	existing := dirs[:0]
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			existing = append(existing, dir)
		}
	}
	return existing
}

// addRecursive watches dir and every directory below it
func addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// watch runs the check once and again after every burst of changes until
// ctx is cancelled. Check failures are reported and watching continues. A
// change to the config file in the root re-runs load before the next check.
func watch(ctx context.Context, stdout, stderr io.Writer, load func() (config.Options, *config.Config, error)) error {
	opts, cfg, err := load()
	if err != nil {
		return err
	}
	a, err := newAnalyzer(opts, cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := watchDirs(opts.Root)
	if len(dirs) == 0 {
		return fmt.Errorf("nothing to watch under %s", opts.Root)
	}
	for _, dir := range dirs {
		if err := addRecursive(watcher, dir); err != nil {
			return err
		}
	}
	// The root itself only for the config file
	if err := watcher.Add(opts.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Root, err)
	}
	configPath := filepath.Join(opts.Root, config.FileName)

	reload := func() {
		newOpts, newCfg, err := load()
		if err != nil {
			fmt.Fprint(stderr, output.FormatError(err))
			return
		}
		newA, err := newAnalyzer(newOpts, newCfg)
		if err != nil {
			fmt.Fprint(stderr, output.FormatError(err))
			return
		}
		opts, a = newOpts, newA
	}

	check := func() {
		if _, err := runCheck(ctx, stdout, opts, a); err != nil {
			fmt.Fprint(stderr, output.FormatError(err))
		}
	}

	fmt.Fprintf(stderr, "Watching %s (press Ctrl+C to stop)\n", opts.Root)
	check()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()
	configChanged := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Dir(event.Name) == opts.Root {
				if event.Name != configPath {
					continue
				}
				configChanged = true
			} else if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						fmt.Fprintf(stderr, "Warning: %v\n", err)
					}
				}
			}
			if opts.Debug {
				fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", event)
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Warning: watch error: %v\n", err)
		case <-timer.C:
			if configChanged {
				configChanged = false
				fmt.Fprintf(stderr, "%s changed, reloading...\n", config.FileName)
				reload()
			}
			fmt.Fprintln(stderr, "Change detected, re-checking...")
			check()
		}
	}
}
