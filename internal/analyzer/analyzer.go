package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ookam/view-values/internal/config"
	"github.com/ookam/view-values/internal/naming"
	"github.com/ookam/view-values/internal/parser"
	"github.com/ookam/view-values/internal/scanner"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 10

// Options configures an Analyzer
type Options struct {
	Root        string // Absolute project root
	InstanceVar string // Accessor name without "@"
	CheckUnused bool   // Unused keys also produce report entries
	OnlyAction  string // When set, only this action name is checked
	Workers     int
	Config      *config.Config
}

// Analyzer compares the keys each controller action declares with the keys
// its views read. Parsed files are cached across runs, so one Analyzer can
// serve repeated checks of the same tree.
type Analyzer struct {
	opts  Options
	usage *parser.UsageParser
	decls *fileCache[*parser.Declarations]
	views *fileCache[parser.Usage]
	debug bool
}

// New creates an analyzer
func New(opts Options) (*Analyzer, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	decls, err := newFileCache[*parser.Declarations](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	views, err := newFileCache[parser.Usage](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		opts:  opts,
		usage: parser.NewUsageParser(opts.InstanceVar),
		decls: decls,
		views: views,
	}, nil
}

// SetDebug enables or disables debug logging to stderr
func (a *Analyzer) SetDebug(debug bool) {
	a.debug = debug
}

// controllerResult is the outcome of checking one controller file
type controllerResult struct {
	entries []ReportEntry
	stats   RunStats
	views   []string
}

// Analyze checks every controller in parallel. Entries keep file order and
// then action order regardless of which worker finished first. Any read
// failure aborts the run.
func (a *Analyzer) Analyze(ctx context.Context, files []scanner.FileInfo) (*ScanResult, error) {
	results := make([]controllerResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.checkController(file)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScanResult{
		Entries:         []ReportEntry{},
		ControllerFiles: make([]string, 0, len(files)),
		ViewFiles:       []string{},
	}
	viewSet := make(map[string]bool)
	for i, res := range results {
		result.ControllerFiles = append(result.ControllerFiles, files[i].RelPath)
		result.Entries = append(result.Entries, res.entries...)
		result.Stats.add(res.stats)
		for _, v := range res.views {
			if !viewSet[v] {
				viewSet[v] = true
				result.ViewFiles = append(result.ViewFiles, v)
			}
		}
	}
	sort.Strings(result.ControllerFiles)
	sort.Strings(result.ViewFiles)
	result.Stats.ControllerFiles = len(result.ControllerFiles)
	result.Stats.ViewFiles = len(result.ViewFiles)
	return result, nil
}

func (a *Analyzer) checkController(file scanner.FileInfo) (controllerResult, error) {
	var res controllerResult

	decls, found, err := a.decls.load(file.Path, file.Path, parser.ParseDeclarationsFile)
	if err != nil {
		return res, err
	}
	if !found {
		return res, fmt.Errorf("controller %s disappeared during scan", file.RelPath)
	}

	controller := naming.ControllerName(file.RelPath)
	if a.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s -> %s (%d actions)\n", file.RelPath, controller, len(decls.Order))
	}

	for _, action := range decls.Order {
		if a.opts.OnlyAction != "" && action != a.opts.OnlyAction {
			continue
		}

		views, err := naming.ViewCandidates(a.opts.Root, controller, action)
		if err != nil {
			return res, err
		}
		res.views = append(res.views, views...)

		if decls.Skipped[action] || a.opts.Config.ShouldIgnoreAction(controller, action) {
			res.stats.ActionsSkipped++
			continue
		}

		usage, err := a.usedKeys(views)
		if err != nil {
			return res, err
		}
		if usage.Skip {
			res.stats.ActionsSkipped++
			continue
		}
		if a.debug {
			fmt.Fprintf(os.Stderr, "[DEBUG]   #%s views=%v\n", action, views)
		}

		res.stats.ActionsChecked++
		declared := decls.Actions[action]
		missing := a.reportable(usage.Keys.Minus(declared))
		unused := a.reportable(declared.Minus(usage.Keys))

		if len(missing) == 0 && (!a.opts.CheckUnused || len(unused) == 0) {
			continue
		}
		if views == nil {
			views = []string{}
		}
		res.entries = append(res.entries, ReportEntry{
			Controller: controller,
			Action:     action,
			Missing:    missing.Sorted(),
			Unused:     unused.Sorted(),
			Views:      views,
		})
		res.stats.TotalMissing += len(missing)
		res.stats.TotalUnused += len(unused)
	}
	return res, nil
}

// usedKeys unions the usage of an action's views
func (a *Analyzer) usedKeys(views []string) (parser.Usage, error) {
	total := parser.Usage{Keys: make(parser.KeySet)}
	for _, rel := range views {
		path := filepath.Join(a.opts.Root, filepath.FromSlash(rel))
		key := a.usage.Accessor() + "\x00" + path
		u, found, err := a.views.load(key, path, a.usage.ParseFile)
		if err != nil {
			return parser.Usage{}, err
		}
		if found {
			total.Merge(u)
		}
	}
	return total, nil
}

// reportable drops keys ignored via config
func (a *Analyzer) reportable(keys parser.KeySet) parser.KeySet {
	if a.opts.Config == nil {
		return keys
	}
	out := make(parser.KeySet, len(keys))
	for k := range keys {
		if !a.opts.Config.ShouldIgnoreKey(k) {
			out.Add(k)
		}
	}
	return out
}
