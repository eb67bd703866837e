package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/lfskit/internal/config"
	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/stats"
	"github.com/bamsammich/lfskit/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries state shared by every subcommand: global flags, the loaded
// config file and the logging setup.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	logFile     string
	verbose     bool
	quiet       bool
	noProgress  bool
	showVersion bool

	cfg         config.Config
	eventLogger *slog.Logger
	closers     []io.Closer
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	defer a.close()

	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func (a *app) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lfskit",
		Short: "Mirror repository folders and split large files to fit hosting limits",
		Long: `lfskit carries two tools for working around file hosting limits.

mirror copies a folder of a hosted repository to local disk through the
contents API, recursing into subfolders.

split and merge cut large files into numbered part files
("<file>.part0", "<file>.part1", ...) and join them back together.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.showVersion {
				fmt.Fprintf(a.stdout, "lfskit %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&a.showVersion, "version", false, "print version and exit")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/lfskit/config.toml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.BoolVar(&a.noProgress, "no-progress", false, "disable periodic progress lines")
	pf.StringVar(&a.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(
		a.newMirrorCmd(),
		a.newSplitCmd(),
		a.newMergeCmd(),
		a.newChunkCmd(),
		a.newInitConfigCmd(),
		newDocsCmd(),
	)
	return rootCmd
}

// setup loads the config file and configures logging before any subcommand
// runs.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	ui.ApplyTheme(a.cfg.Theme)
	return a.setupLogging()
}

func (a *app) loadConfig() error {
	if a.configPath != "" {
		cfg, err := config.LoadFile(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) setupLogging() error {
	logLevel := slog.LevelWarn
	if a.verbose {
		logLevel = slog.LevelDebug
	} else if !a.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	var logHandler slog.Handler = textHandler
	if a.logFile != "" {
		lf, err := os.Create(a.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, lf)
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
		a.eventLogger = slog.New(jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		c.Close() //nolint:errcheck,gosec // closing log files on exit
	}
	a.closers = nil
}

// operation is the body of a subcommand: it does the work, emitting events
// and counting into collector.
type operation func(ctx context.Context, events chan<- event.Event, collector *stats.Collector) error

// execute runs op with a presenter consuming its events, prints the
// completion summary and maps a failure to an exit code: 1 when some work
// was done before the failure, 2 when none was.
func (a *app) execute(ctx context.Context, root string, op operation) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	presenterEvents := (<-chan event.Event)(events)
	if a.eventLogger != nil {
		presenterEvents = ui.LogEvents(a.eventLogger, events)
	}

	isTTY := false
	if f, ok := a.stderr.(*os.File); ok {
		isTTY = ui.IsTTY(f.Fd())
	}
	presenter := ui.NewPresenter(ui.Config{
		Writer:     a.stdout,
		ErrWriter:  a.stderr,
		Stats:      collector,
		Root:       root,
		IsTTY:      isTTY,
		Quiet:      a.quiet,
		NoProgress: a.noProgress,
	})

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	err := op(ctx, events, collector)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(a.stderr, "presenter: %v\n", presenterErr)
	}

	if !a.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(a.stderr, summary)
		}
	}

	if err != nil {
		slog.Error("failed", "error", err)
		snap := collector.Snapshot()
		if snap.Files() > 0 || snap.PartsWritten > 0 {
			return &exitError{code: 1} // partial failure
		}
		return &exitError{code: 2} // total failure
	}
	return nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
