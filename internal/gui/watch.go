package gui

import (
	"fmt"
	"log/slog"

	. "modernc.org/tk9.0"

	"github.com/thiagokokada/gitlanes/internal/watch"
)

type autoReloadState struct {
	configured bool
	enabled    bool
	watcher    *watch.Watcher
	button     *TButtonWidget
}

func (a *Controller) initAutoReload(requested bool) {
	a.watch.configured = requested && a.local != nil
	if requested && a.local == nil {
		slog.Warn("auto reload needs a local repository")
	}
	if a.watch.configured {
		if err := a.enableAutoReload(); err != nil {
			slog.Error("auto reload disabled", slog.Any("error", err))
			a.watch.configured = false
		}
	}
	a.updateReloadButtonLabel()
}

func (a *Controller) enableAutoReload() error {
	if !a.watch.configured || a.watch.enabled {
		return nil
	}
	w, err := watch.New(a.local.RepoPath(), watch.DefaultDelay, func() {
		slog.Debug("auto reload scheduled")
		PostEvent(a.reloadAsync, false)
	})
	if err != nil {
		return fmt.Errorf("auto reload: %w", err)
	}
	a.watch.watcher = w
	a.watch.enabled = true
	return nil
}

func (a *Controller) disableAutoReload() {
	if a.watch.watcher != nil {
		if err := a.watch.watcher.Close(); err != nil {
			slog.Error("watcher close", slog.Any("error", err))
		}
		a.watch.watcher = nil
	}
	a.watch.enabled = false
}

func (a *Controller) shutdown() {
	a.disableAutoReload()
	a.cancelDetailLoad()
}

func (a *Controller) updateReloadButtonLabel() {
	if a.watch.button == nil {
		return
	}
	a.watch.button.Configure(Txt(reloadButtonLabel(a.watch.configured, a.watch.enabled)))
}

// onReloadButton reloads; with auto reload configured it also toggles it.
func (a *Controller) onReloadButton() {
	if a.watch.configured {
		if a.watch.enabled {
			a.disableAutoReload()
		} else if err := a.enableAutoReload(); err != nil {
			slog.Error("auto reload enable failed", slog.Any("error", err))
		}
		a.updateReloadButtonLabel()
	}
	a.reloadAsync()
}
