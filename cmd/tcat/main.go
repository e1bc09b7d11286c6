package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/tcat/internal/config"
	"github.com/bamsammich/tcat/internal/digest"
	"github.com/bamsammich/tcat/internal/engine"
	"github.com/bamsammich/tcat/internal/event"
	"github.com/bamsammich/tcat/internal/filter"
	"github.com/bamsammich/tcat/internal/stats"
	"github.com/bamsammich/tcat/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	defer engine.CleanupTmpFiles()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// patternFlag is a repeatable pflag.Value that compiles each --exclude or
// --include glob into the shared PatternSet as it is parsed, so a
// malformed pattern fails before any scanning starts.
type patternFlag struct {
	set     *filter.PatternSet
	include bool
}

var _ pflag.Value = (*patternFlag)(nil)

func (*patternFlag) String() string { return "" }
func (*patternFlag) Type() string   { return "pattern" }

func (f *patternFlag) Set(val string) error {
	if f.include {
		return f.set.AddInclude(val)
	}
	return f.set.AddExclude(val)
}

// options holds the parsed root command flags.
type options struct {
	recursive   bool
	noFollow    bool
	list        bool
	output      string
	algorithm   string
	workers     int
	bwLimit     string
	filterFile  string
	minSize     string
	maxSize     string
	progress    bool
	verbose     bool
	quiet       bool
	logFile     string
	configFile  string
	showVersion bool
}

func newRootCmd() *cobra.Command {
	var opts options
	patterns := filter.NewPatternSet()

	rootCmd := &cobra.Command{
		Use:   "tcat [flags] <path>...",
		Short: "Hash files in parallel and write a sorted, checksummed catalog",
		Long: `tcat walks the given paths, hashes every accepted regular file on a pool
of workers and writes either a compressed binary catalog sorted by path
(default) or a "path;DIGEST;size" listing (--list).

A first argument named "dump" runs the dump subcommand; to catalog a
file or directory called dump, pass it as ./dump.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "tcat %s\n", version)
				return nil
			}
			return runScan(cmd, args, &opts, patterns)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "descend into directories")
	flags.BoolVar(&opts.noFollow, "no-follow", false, "skip symbolic links instead of following them")
	flags.VarP(&patternFlag{set: patterns}, "exclude", "e", "exclude paths matching PATTERN (repeatable)")
	flags.VarP(&patternFlag{set: patterns, include: true}, "include", "i",
		"keep excluded paths that also match PATTERN (repeatable)")
	flags.StringVar(&opts.filterFile, "filter", "", "read exclude/include rules from FILE")
	flags.StringVar(&opts.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	flags.StringVar(&opts.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")
	flags.BoolVarP(&opts.list, "list", "l", false, "stream a path;DIGEST;size listing instead of a catalog")
	flags.StringVarP(&opts.output, "output", "o", "", "write to FILE instead of stdout")
	flags.StringVarP(&opts.algorithm, "algorithm", "a", digest.Default.String(), "digest algorithm (sha256 or blake3)")
	flags.IntVarP(&opts.workers, "workers", "n", runtime.NumCPU(), "number of hashing workers")
	flags.StringVar(&opts.bwLimit, "bwlimit", "", "cap aggregate read throughput per second (e.g. 100M)")
	flags.BoolVar(&opts.progress, "progress", false, "report progress on stderr")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	flags.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	flags.StringVar(&opts.configFile, "config", "", "read defaults from FILE instead of the XDG config")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: CLI entry point wires flags, config, logging and output
func runScan(cmd *cobra.Command, roots []string, opts *options, patterns *filter.PatternSet) error {
	stderr := cmd.ErrOrStderr()

	// Configure logging.
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})
	var logHandler slog.Handler = textHandler
	if opts.logFile != "" {
		lf, err := os.Create(opts.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	// Load optional config file; a broken one is reported and ignored.
	var cfg config.Config
	var err error
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Warn("failed to load config", "error", err)
		cfg = config.Config{}
	}
	if err := applyConfigDefaults(cmd, cfg.Defaults, opts, patterns); err != nil {
		return err
	}

	alg, err := digest.Parse(opts.algorithm)
	if err != nil {
		return fmt.Errorf("invalid --algorithm: %w", err)
	}
	if opts.workers <= 0 {
		return fmt.Errorf("invalid --workers %d: must be at least 1", opts.workers)
	}

	var bwLimit int64
	if opts.bwLimit != "" {
		bwLimit, err = filter.ParseSize(opts.bwLimit)
		if err != nil {
			return fmt.Errorf("invalid --bwlimit: %w", err)
		}
	}

	if opts.filterFile != "" {
		if err := patterns.LoadFile(opts.filterFile); err != nil {
			return fmt.Errorf("load filter file: %w", err)
		}
	}
	if opts.minSize != "" {
		n, err := filter.ParseSize(opts.minSize)
		if err != nil {
			return fmt.Errorf("invalid --min-size: %w", err)
		}
		patterns.SetMinSize(n)
	}
	if opts.maxSize != "" {
		n, err := filter.ParseSize(opts.maxSize)
		if err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		patterns.SetMaxSize(n)
	}

	// Choose the destination before scanning so a bad -o fails fast.
	var out io.Writer = cmd.OutOrStdout()
	var atomicOut *engine.AtomicFile
	if opts.output != "" && opts.output != "-" {
		atomicOut, err = engine.CreateAtomic(opts.output)
		if err != nil {
			return err
		}
		defer atomicOut.Abort()
		out = atomicOut
	} else if f, ok := out.(*os.File); ok && !opts.list && ui.IsTTY(f) {
		return errors.New("refusing to write a binary catalog to a terminal (use -o FILE or --list)")
	}

	var sink engine.Sink
	if opts.list {
		sink = engine.NewStreamingSink(out)
	} else {
		sink = engine.NewCatalogSink(out, alg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	// When --log is set, tee events through a logging goroutine that
	// writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if opts.logFile != "" {
		teed := make(chan event.Event, 256)
		go func() {
			defer close(teed)
			for ev := range events {
				logEvent(ev)
				teed <- ev
			}
		}()
		presenterEvents = teed
	}

	errFile, _ := stderr.(*os.File)
	isTTY := ui.IsTTY(errFile)
	presenter := ui.NewPresenter(ui.Config{
		ErrWriter: stderr,
		Stats:     collector,
		IsTTY:     isTTY,
		Width:     ui.TermWidth(errFile),
		Quiet:     opts.quiet,
		Verbose:   opts.verbose,
		Progress:  opts.progress,
	})

	engineCfg := engine.Config{
		Roots:     roots,
		Recursive: opts.recursive,
		NoFollow:  opts.noFollow,
		Workers:   opts.workers,
		Algorithm: alg,
		BWLimit:   bwLimit,
		Events:    events,
		Stats:     collector,
	}
	// Only set filter if it has rules/size constraints.
	if !patterns.Empty() {
		engineCfg.Filter = patterns
	}

	includes, excludes := patterns.Patterns()
	slog.Debug("starting scan",
		"roots", roots,
		"workers", opts.workers,
		"algorithm", alg.String(),
		"recursive", opts.recursive,
		"no_follow", opts.noFollow,
		"list", opts.list,
		"include", includes,
		"exclude", excludes,
	)

	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		if err := presenter.Run(presenterEvents); err != nil {
			slog.Warn("presenter failed", "error", err)
		}
	}()

	result := engine.Run(ctx, engineCfg, sink)
	stop()
	close(events)
	presenterWg.Wait()

	if result.Err == nil && atomicOut != nil {
		result.Err = atomicOut.Commit()
	}

	if opts.verbose {
		fmt.Fprintln(stderr, presenter.Summary())
	}
	slog.Debug("scan finished", "stats", result.Stats.String())

	if result.Err != nil {
		// Each joined error is one "path: cause" line.
		fmt.Fprintln(stderr, result.Err)
		return &exitError{code: 1}
	}
	return nil
}

func logEvent(ev event.Event) {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("path", ev.Path),
		slog.Int64("size", ev.Size),
		slog.Int("worker", ev.WorkerID),
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	slog.LogAttrs(context.Background(), slog.LevelDebug, "tcat.event", attrs...)
}

// applyConfigDefaults applies config file defaults for flags not
// explicitly set on the CLI. Config patterns are added to the CLI ones.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	opts *options,
	patterns *filter.PatternSet,
) error {
	changed := cmd.Flags().Changed
	if !changed("workers") && defaults.Workers != nil {
		opts.workers = *defaults.Workers
	}
	if !changed("algorithm") && defaults.Algorithm != nil {
		opts.algorithm = *defaults.Algorithm
	}
	if !changed("recursive") && defaults.Recursive != nil {
		opts.recursive = *defaults.Recursive
	}
	if !changed("no-follow") && defaults.NoFollow != nil {
		opts.noFollow = *defaults.NoFollow
	}
	if !changed("bwlimit") && defaults.BWLimit != nil {
		opts.bwLimit = *defaults.BWLimit
	}
	for _, p := range defaults.Exclude {
		if err := patterns.AddExclude(p); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	for _, p := range defaults.Include {
		if err := patterns.AddInclude(p); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// exitError carries a non-zero status whose diagnostics were already
// printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
