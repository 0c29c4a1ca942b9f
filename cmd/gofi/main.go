package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xADE/gofi/internal/config"
	"github.com/0xADE/gofi/internal/history"
	"github.com/0xADE/gofi/internal/indexer"
	"github.com/0xADE/gofi/internal/launcher"
	"github.com/0xADE/gofi/internal/session"
	"github.com/0xADE/gofi/internal/tui"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:           "gofi",
	Short:         "Fuzzy application launcher",
	Long:          "gofi lists installed desktop applications, ranks them as you type and launches the selected one.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Debug logging")
}

func main() {
	os.Exit(exitCode(os.Stderr, rootCmd.Execute()))
}

// exitCode prints err, if any, and returns the process exit status.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(w, tui.ErrorStyle.Render(err.Error()))
	return 1
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(cmd *cobra.Command, _ []string) error {
	logger := newLogger(debug)
	slog.SetDefault(logger)
	logger.Debug("starting")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Debug = debug

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, store, err := prepare(ctx, cfg, logger)
	defer store.Close()
	if err != nil {
		return err
	}

	model := tui.New(ctx, sess, cfg.Rows(), func(rcChanged bool) tui.Enumerator {
		if rcChanged {
			if err := cfg.ReloadRC(); err != nil {
				logger.Warn("error reloading config", "err", err)
			}
		}
		snapshot := *cfg
		return indexer.NewIndexer(&snapshot, logger)
	}, logger)

	program := tea.NewProgram(model, tea.WithContext(ctx))

	if cfg.Watch {
		startWatcher(ctx, cfg, program, logger)
	}

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("ui error: %w", err)
	}

	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	logger.Debug("exiting")
	return nil
}

// prepare loads the history, enumerates applications and starts a session.
// A history that cannot be loaded is logged and replaced by an empty one. The
// returned store is never nil and must be closed by the caller.
func prepare(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session.Session, *history.Store, error) {
	store, err := history.Load(cfg.HistoryPath(), history.WithLogger(logger))
	if err != nil {
		logger.Warn("could not load history", "err", err)
	}

	apps, err := indexer.NewIndexer(cfg, logger).Enumerate(ctx)
	if err != nil {
		return nil, store, fmt.Errorf("failed to enumerate applications: %w", err)
	}
	logger.Debug("fetched entries", "count", len(apps))

	sess := session.New(
		indexer.Build(apps, store),
		store,
		launcher.New(cfg.TerminalCommand(), logger),
		session.WithLogger(logger),
	)
	return sess, store, nil
}

func startWatcher(ctx context.Context, cfg *config.Config, program *tea.Program, logger *slog.Logger) {
	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		logger.Warn("cannot watch application directories", "err", err)
		return
	}
	go func() {
		defer watcher.Close()
		watcher.Run(ctx, func(rcChanged bool) {
			program.Send(tui.RefreshMsg{RCChanged: rcChanged})
		})
	}()
}
