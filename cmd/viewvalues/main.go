package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ookam/view-values/internal/analyzer"
	"github.com/ookam/view-values/internal/config"
	"github.com/ookam/view-values/internal/output"
	"github.com/ookam/view-values/internal/scanner"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	// errIssuesFound makes the process exit 1 without printing an error;
	// the report already explains the failure
	errIssuesFound = errors.New("view_values check failed")
	errNoCommand   = errors.New("no command given")
)

// checkFlags holds the flags shared by check and watch
type checkFlags struct {
	root        string
	instanceVar string
	checkUnused bool
	include     string
	format      string
	onlyAction  string
	verbose     bool
	noColor     bool
	debug       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "viewvalues",
		Short: "Check view_values keys between controllers and views",
		Long:  "A CLI tool that compares the keys each controller action declares with build_view_values against the keys its views read.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return errNoCommand
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(newCheckCmd(stdout))
	rootCmd.AddCommand(newWatchCmd(stdout, stderr))
	rootCmd.AddCommand(newInitConfigCmd(stdout))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "Print the version number of viewvalues",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	})
	return rootCmd
}

func bindCheckFlags(cmd *cobra.Command, f *checkFlags) {
	defaults := config.DefaultOptions()
	cmd.Flags().StringVar(&f.root, "root", defaults.Root, "Project root to scan (default: current directory)")
	cmd.Flags().StringVar(&f.instanceVar, "instance-var", defaults.InstanceVar, "Accessor used in views, without the leading @")
	cmd.Flags().BoolVar(&f.checkUnused, "check-unused", false, "Also fail on keys that are declared but never used")
	cmd.Flags().StringVar(&f.include, "include", "", "Only check controllers whose path matches this substring or glob")
	cmd.Flags().StringVar(&f.format, "format", defaults.Format, "Output format: text or json")
	cmd.Flags().StringVar(&f.onlyAction, "only-action", "", "Only check actions with this name")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "List scanned files and print the summary")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
}

// options layers defaults, the config file, .env and the environment, then
// explicitly set flags
func (f *checkFlags) options(cmd *cobra.Command) (config.Options, *config.Config, error) {
	opts := config.DefaultOptions()
	opts.Root = f.root
	opts.Format = f.format
	if err := opts.Validate(); err != nil {
		return opts, nil, err
	}

	cfg, err := config.LoadConfig(opts.Root)
	if err != nil {
		return opts, nil, err
	}
	opts.ApplyFile(cfg)

	if err := config.LoadDotEnv(opts.Root); err != nil {
		return opts, nil, err
	}
	if err := opts.ApplyEnv(); err != nil {
		return opts, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("instance-var") {
		opts.InstanceVar = f.instanceVar
	}
	if flags.Changed("check-unused") {
		opts.CheckUnused = f.checkUnused
	}
	if flags.Changed("verbose") {
		opts.Verbose = f.verbose
	}
	opts.Include = f.include
	opts.OnlyAction = f.onlyAction
	opts.NoColor = f.noColor
	opts.Debug = f.debug

	if err := opts.Validate(); err != nil {
		return opts, nil, err
	}
	return opts, cfg, nil
}

func newCheckCmd(stdout io.Writer) *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check view_values keys once",
		Long:  "Scan controllers and their views once and report missing and unused view_values keys.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := f.options(cmd)
			if err != nil {
				return err
			}
			a, err := newAnalyzer(opts, cfg)
			if err != nil {
				return err
			}
			result, err := runCheck(cmd.Context(), stdout, opts, a)
			if err != nil {
				return err
			}
			if output.HasIssues(result) {
				return errIssuesFound
			}
			return nil
		},
	}
	bindCheckFlags(cmd, f)
	return cmd
}

func newAnalyzer(opts config.Options, cfg *config.Config) (*analyzer.Analyzer, error) {
	a, err := analyzer.New(analyzer.Options{
		Root:        opts.Root,
		InstanceVar: opts.InstanceVar,
		CheckUnused: opts.CheckUnused,
		OnlyAction:  opts.OnlyAction,
		Config:      cfg,
	})
	if err != nil {
		return nil, err
	}
	a.SetDebug(opts.Debug)
	return a, nil
}

// runCheck scans, analyzes and prints one report
func runCheck(ctx context.Context, w io.Writer, opts config.Options, a *analyzer.Analyzer) (*analyzer.ScanResult, error) {
	fileScanner := scanner.NewScanner()
	fileScanner.SetInclude(opts.Include)

	if opts.Debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] scanning %s (accessor @%s)\n", opts.Root, opts.InstanceVar)
	}
	files, err := fileScanner.Scan(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	result, err := a.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := output.Format(w, result, output.Options{
		Format:  opts.Format,
		Verbose: opts.Verbose,
		Color:   useColor(w, opts.NoColor),
	}); err != nil {
		return nil, fmt.Errorf("failed to format output: %w", err)
	}
	return result, nil
}

func useColor(w io.Writer, disabled bool) bool {
	if disabled {
		return false
	}
	f, ok := w.(*os.File)
	return ok && output.ColorSupported(f)
}

func newInitConfigCmd(stdout io.Writer) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Create a " + config.FileName + " file",
		Long:  "Creates a " + config.FileName + " file with default configuration in the project root.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := filepath.Join(root, config.FileName)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists in %s", config.FileName, root)
			}
			if err := os.WriteFile(configPath, []byte(config.DefaultContent), 0644); err != nil {
				return fmt.Errorf("failed to create %s: %w", config.FileName, err)
			}
			fmt.Fprintf(stdout, "Created %s in %s\n", config.FileName, root)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "Directory to write the config file to")
	return cmd
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errIssuesFound) && !errors.Is(err, errNoCommand) {
			fmt.Fprint(stderr, output.FormatError(err))
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
