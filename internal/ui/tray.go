package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"

	"github.com/snapcut/snapcut-agent/internal/catalog"
	"github.com/snapcut/snapcut-agent/internal/preview"
)

type Tray struct {
	catalogSvc catalog.CatalogService
	runner     *catalog.Runner
	controller *preview.Controller
	logger     *slog.Logger

	statusItem    *systray.MenuItem
	libraryItem   *systray.MenuItem
	transportItem *systray.MenuItem
	pauseItem     *systray.MenuItem

	mu sync.Mutex

	onAddFolder func() error
	onQuit      func()
}

type TrayConfig struct {
	CatalogService catalog.CatalogService
	Runner         *catalog.Runner
	Controller     *preview.Controller
	Logger         *slog.Logger
	OnAddFolder    func() error
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		catalogSvc:  cfg.CatalogService,
		runner:      cfg.Runner,
		controller:  cfg.Controller,
		logger:      cfg.Logger,
		onAddFolder: cfg.OnAddFolder,
		onQuit:      cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Snapcut")
	systray.SetTooltip("Snapcut Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.libraryItem = systray.AddMenuItem("Library: empty", "Cataloged media")
	t.libraryItem.Disable()

	systray.AddSeparator()

	t.transportItem = systray.AddMenuItem("Play Preview", "Toggle preview playback")

	t.pauseItem = systray.AddMenuItem("Pause Indexing", "Pause scan and probe jobs")

	addFolderItem := systray.AddMenuItem("Add Folder...", "Add a media folder")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Snapcut Agent")

	go func() {
		for {
			select {
			case <-t.transportItem.ClickedCh:
				t.toggleTransport()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-addFolderItem.ClickedCh:
				t.handleAddFolder()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) toggleTransport() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.controller == nil {
		return
	}

	if t.controller.Snapshot().Playing {
		t.controller.SetPlaying(false)
		t.transportItem.SetTitle("Play Preview")
	} else {
		t.controller.SetPlaying(true)
		t.transportItem.SetTitle("Pause Preview")
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Indexing")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Indexing")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleAddFolder() {
	if t.onAddFolder != nil {
		if err := t.onAddFolder(); err != nil {
			t.logger.Error("failed to add folder", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateLibrary(fileCount int, totalBytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fileCount == 0 {
		t.libraryItem.SetTitle("Library: empty")
		return
	}
	t.libraryItem.SetTitle(fmt.Sprintf("Library: %d files, %s", fileCount, humanize.Bytes(uint64(totalBytes))))
}

func (t *Tray) Quit() {
	systray.Quit()
}
