package indexer

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/0xADE/gofi/internal/config"
	"github.com/0xADE/gofi/internal/indexer/desktop"
	"github.com/0xADE/gofi/internal/indexer/executable"
)

// Indexer enumerates launchable applications from .desktop files and,
// optionally, executables on PATH.
type Indexer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewIndexer creates a new indexer instance
func NewIndexer(cfg *config.Config, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{cfg: cfg, logger: logger}
}

// Enumerate scans all sources concurrently. The result is deterministic for
// identical files on disk: desktop entries first in directory walk order, then
// PATH executables in PATH order.
func (idx *Indexer) Enumerate(ctx context.Context) ([]*Application, error) {
	execChan := make(chan *executable.ExecutableInfo, 100)
	desktopChan := make(chan *desktop.DesktopEntry, 100)

	var (
		desktopApps []*Application
		execApps    []*Application
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return desktop.Scan(gctx, idx.cfg.ApplicationDirs(), desktopChan)
	})
	g.Go(func() error {
		return executable.ScanPaths(gctx, idx.cfg.ExecutableDirs(), execChan)
	})
	g.Go(func() error {
		desktops := idx.cfg.Desktops()
		for desk := range desktopChan {
			desktopApps = append(desktopApps, idx.fromDesktop(desk, desktops))
		}
		return nil
	})
	g.Go(func() error {
		for exe := range execChan {
			execApps = append(execApps, fromExecutable(exe))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx.logger.Debug("enumerated applications", "desktop", len(desktopApps), "executables", len(execApps))
	return append(desktopApps, execApps...), nil
}

func (idx *Indexer) fromDesktop(desk *desktop.DesktopEntry, desktops []string) *Application {
	showIn := ShowInHidden
	if desk.ShownIn(desktops) {
		showIn = ShowInCurrent
	}
	return &Application{
		ID:          desk.ID,
		Name:        desk.GetLocalizedName(idx.cfg.Lang),
		DisplayName: desk.DisplayName(idx.cfg.Lang),
		Icon:        desk.Icon,
		Keywords:    desk.LocalizedKeywords(idx.cfg.Lang),
		Exec:        desk.Exec,
		Terminal:    desk.Terminal,
		ShowIn:      showIn,
		NoDisplay:   desk.NoDisplay,
		Path:        desk.Path,
	}
}

func fromExecutable(exe *executable.ExecutableInfo) *Application {
	return &Application{
		ID:          "exe:" + exe.Path,
		Name:        exe.Name,
		DisplayName: exe.Name,
		Exec:        desktop.QuoteArg(exe.Path),
		ShowIn:      ShowInCurrent,
		Path:        exe.Path,
	}
}
