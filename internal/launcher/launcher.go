package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/google/shlex"

	"github.com/0xADE/gofi/internal/indexer"
	"github.com/0xADE/gofi/internal/indexer/desktop"
)

// ErrEmptyExec is returned for applications without a command line.
var ErrEmptyExec = errors.New("empty exec command")

// Exec starts applications as detached child processes.
type Exec struct {
	terminal string
	logger   *slog.Logger
	start    func(*exec.Cmd) error
}

// New creates a launcher. terminal is the command used for Terminal=true
// applications, invoked as "<terminal> -e <command...>".
func New(terminal string, logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{terminal: terminal, logger: logger, start: startDetached}
}

// Command builds the argv for app without starting it.
func (l *Exec) Command(app *indexer.Application) ([]string, error) {
	if app == nil {
		return nil, ErrEmptyExec
	}

	expanded := desktop.ExpandExec(app.Exec, app.Name, app.Icon, app.Path)
	argv, err := shlex.Split(expanded)
	if err != nil {
		return nil, fmt.Errorf("invalid exec %q: %w", app.Exec, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyExec
	}

	if app.Terminal {
		argv = append([]string{l.terminal, "-e"}, argv...)
	}
	return argv, nil
}

// Launch starts app and returns as soon as the process is running. The
// process is not waited for.
func (l *Exec) Launch(ctx context.Context, app *indexer.Application) error {
	argv, err := l.Command(app)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.logger.Debug("executing", "id", app.ID, "argv", argv)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	l.logger.Debug("command started", "id", app.ID, "pid", cmd.Process.Pid)
	return cmd.Process.Release()
}

func startDetached(cmd *exec.Cmd) error {
	cmd.SysProcAttr = detachAttr()
	return cmd.Start()
}
