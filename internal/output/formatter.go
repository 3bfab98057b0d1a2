package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ookam/view-values/internal/analyzer"
	"github.com/ookam/view-values/internal/config"
	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

const checkPrefix = "view_values check: "

// Options controls how a result is rendered
type Options struct {
	Format  string // config.FormatText or config.FormatJSON
	Verbose bool   // Include the file inventory and stats
	Color   bool   // Emit ANSI colors (text only)
}

// ColorSupported reports whether f is a terminal that accepts ANSI colors
func ColorSupported(f *os.File) bool {
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	// On Windows this turns on virtual terminal processing
	return enableANSI(f)
}

// JSONOutput represents the JSON output format
type JSONOutput struct {
	Reports []analyzer.ReportEntry `json:"reports"`
	Stats   *analyzer.RunStats     `json:"stats,omitempty"`
}

// Format writes the check result to w
func Format(w io.Writer, result *analyzer.ScanResult, opts Options) error {
	if opts.Format == config.FormatJSON {
		return formatJSON(w, result, opts.Verbose)
	}
	return formatText(w, result, opts)
}

func formatJSON(w io.Writer, result *analyzer.ScanResult, verbose bool) error {
	out := JSONOutput{Reports: make([]analyzer.ReportEntry, 0, len(result.Entries))}
	for _, e := range result.Entries {
		out.Reports = append(out.Reports, analyzer.ReportEntry{
			Controller: e.Controller,
			Action:     e.Action,
			Missing:    nonNil(e.Missing),
			Unused:     nonNil(e.Unused),
			Views:      nonNil(e.Views),
		})
	}
	if verbose {
		stats := result.Stats
		out.Stats = &stats
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// textWriter keeps the first write error so rendering code stays linear
type textWriter struct {
	w     io.Writer
	color bool
	err   error
}

func (t *textWriter) c(code string) string {
	if t.color {
		return code
	}
	return ""
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func formatText(w io.Writer, result *analyzer.ScanResult, opts Options) error {
	t := &textWriter{w: w, color: opts.Color}

	if opts.Verbose {
		t.fileList("Controllers", result.ControllerFiles)
		t.fileList("Views", result.ViewFiles)
		t.printf("\n")
	}

	switch {
	case len(result.Entries) > 0:
		for _, e := range result.Entries {
			t.entry(e)
		}
	case result.OnlySkipped():
		t.printf("%s%s*SKIP*%s\n", checkPrefix, t.c(colorYellow), t.c(colorReset))
	default:
		t.printf("%s%s%sOK%s\n", checkPrefix, t.c(colorGreen), t.c(colorBold), t.c(colorReset))
	}

	if opts.Verbose || len(result.Entries) > 0 {
		s := result.Stats
		t.printf("\n%sSummary:%s %d controllers, %d views, %d actions checked\n",
			t.c(colorBold), t.c(colorReset), s.ControllerFiles, s.ViewFiles, s.ActionsChecked)
		if len(result.Entries) > 0 {
			t.printf("%sTotals:%s %d missing, %d unused\n",
				t.c(colorBold), t.c(colorReset), s.TotalMissing, s.TotalUnused)
		}
	}
	return t.err
}

func (t *textWriter) fileList(title string, paths []string) {
	t.printf("%s%s (%d):%s\n", t.c(colorBold), title, len(paths), t.c(colorReset))
	for _, p := range paths {
		t.printf("  %s%s%s\n", t.c(colorGray), p, t.c(colorReset))
	}
}

func (t *textWriter) entry(e analyzer.ReportEntry) {
	t.printf("%s%sNG:%s %s#%s\n", t.c(colorBold), t.c(colorRed), t.c(colorReset), e.Controller, e.Action)

	views := "(none)"
	if len(e.Views) > 0 {
		views = strings.Join(e.Views, ", ")
	}
	t.printf("  views: %s%s%s\n", t.c(colorCyan), views, t.c(colorReset))

	if len(e.Missing) > 0 {
		t.printf("  missing (used but not declared): %s%s%s\n", t.c(colorRed), strings.Join(e.Missing, ", "), t.c(colorReset))
	}
	if len(e.Unused) > 0 {
		t.printf("  unused (declared but not used): %s%s%s\n", t.c(colorYellow), strings.Join(e.Unused, ", "), t.c(colorReset))
	}
}

// HasIssues returns true if the run should exit non-zero
func HasIssues(result *analyzer.ScanResult) bool {
	return result.Failed()
}

// FormatError formats an error message
func FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err)
}
