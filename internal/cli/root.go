// Package cli wires the experiments command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mugaber/challenge-experiment-module/internal/config"
	"github.com/mugaber/challenge-experiment-module/internal/events"
	"github.com/mugaber/challenge-experiment-module/internal/journal"
	"github.com/mugaber/challenge-experiment-module/internal/logging"
	"github.com/mugaber/challenge-experiment-module/internal/panel"
	"github.com/mugaber/challenge-experiment-module/internal/store"
)

// Execute runs the root command against the process streams.
func Execute(version string) error {
	return newRootCmd(version, newApp(os.Stdout, os.Stderr)).Execute()
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	isTTY  func() bool

	configFile string
	logLevel   string
	logFormat  string

	cfg     *config.Config
	logOut  io.Writer
	logFile *os.File
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, isTTY: hasTTY}
}

func newRootCmd(version string, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Experiment modules and their iterations",
		Long: "experiments manages a fixed set of experiment modules, each holding an ordered\n" +
			"list of iterations. With no subcommand it opens the panel on a terminal and\n" +
			"prints the state otherwise.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.isTTY() {
				return a.runPanel(cmd.Context())
			}
			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			return writeState(a.stdout, FormatText, rt.store.Snapshot())
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/experiments/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	cmd.AddCommand(
		newShowCmd(a),
		newRunCmd(a),
		newJournalCmd(a),
	)
	return cmd
}

// setup loads configuration and initializes logging. Flags override env vars
// and the config file.
func (a *app) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	if cmd.Flags().Changed("log-level") {
		loader.Set("logging.level", a.logLevel)
	}
	if cmd.Flags().Changed("log-format") {
		loader.Set("logging.format", a.logFormat)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logOut = a.stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		a.logOut = f
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       a.logOut,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	if used := loader.ConfigFileUsed(); used != "" {
		logging.Logger.Debug().Str("path", used).Msg("loaded config file")
	}
	cmd.SetContext(logging.WithContext(cmd.Context(), logging.Logger))
	return nil
}


func (a *app) teardown() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

// runtime is one store with its publisher and optional journal.
type runtime struct {
	store     *store.Store
	publisher *events.InMemoryPublisher
	journal   *journal.DB
}

func (a *app) newRuntime(ctx context.Context) (*runtime, error) {
	logger := logging.Component(ctx, "store")
	opts := []events.PublisherOption{events.WithLogger(logger)}

	rt := &runtime{}
	if a.cfg.Journal.Enabled {
		db, err := a.openJournal(ctx)
		if err != nil {
			return nil, err
		}
		rt.journal = db
		opts = append(opts, events.WithRepository(journal.NewEventRepository(db)))
	}

	rt.publisher = events.NewInMemoryPublisher(opts...)
	s, err := store.New(
		store.WithLogger(logger),
		store.WithPublisher(rt.publisher),
		store.WithFinalTitle(a.cfg.Store.FinalTitle),
	)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.store = s
	return rt, nil
}

func (a *app) openJournal(ctx context.Context) (*journal.DB, error) {
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	db, err := journal.Open(journal.Config{
		Path:        a.cfg.JournalPath(),
		BusyTimeout: msDuration(a.cfg.Journal.BusyTimeoutMs),
		Logger:      logging.Component(ctx, "journal"),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (rt *runtime) Close() {
	if rt.publisher != nil {
		rt.publisher.Close()
	}
	if rt.journal != nil {
		_ = rt.journal.Close()
	}
}

func (a *app) runPanel(ctx context.Context) error {
	// The alt screen owns the terminal; log only when a file is configured.
	if a.logFile == nil {
		logging.Logger = zerolog.Nop()
		ctx = logging.WithContext(ctx, logging.Logger)
	}
	logger := logging.Component(ctx, "panel")

	rt, err := a.newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	return panel.Run(panel.Config{
		Store:     rt.store,
		Publisher: rt.publisher,
		Theme:     a.cfg.TUI.Theme,
		Logger:    logger,
	})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
