package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/snapcut/snapcut-agent/internal/api"
	"github.com/snapcut/snapcut-agent/internal/catalog"
	"github.com/snapcut/snapcut-agent/internal/config"
	"github.com/snapcut/snapcut-agent/internal/db"
	"github.com/snapcut/snapcut-agent/internal/export"
	"github.com/snapcut/snapcut-agent/internal/logging"
	"github.com/snapcut/snapcut-agent/internal/playback"
	"github.com/snapcut/snapcut-agent/internal/preview"
	"github.com/snapcut/snapcut-agent/internal/probe"
	"github.com/snapcut/snapcut-agent/internal/project"
	"github.com/snapcut/snapcut-agent/internal/ui"
	"github.com/snapcut/snapcut-agent/internal/watcher"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ThumbsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting snapcut agent", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                    SNAPCUT AGENT v0.1.0                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	catalogSvc := catalog.NewService(repo, logger)
	playbackSvc := playback.NewServer(logger)

	clock := preview.NewTickerClock(cfg.FrameClockHz())
	controller := preview.NewController(clock, preview.Options{
		DriftTolerance: cfg.DriftTolerance(),
		UpdateThrottle: cfg.UpdateThrottle(),
	}, logger)

	// In simulated mode a stand-in backend is registered per video item so
	// the whole transport loop runs without a desktop frontend attached.
	var sink project.Sink = controller
	if cfg.SimulatePlayback() {
		logger.Info("playback simulation enabled")
		sink = preview.NewSimulator(controller, logger)
	}

	proj := project.NewService(repo, sink, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := proj.Load(ctx); err != nil {
		logger.Warn("failed to restore project session", "error", err)
	}

	prober := probe.NewFFProber(cfg.FFprobePath(), cfg.FFmpegPath(), logger)
	exporter := export.NewExporter(cfg.FFmpegPath(), logger)

	runner := catalog.NewRunner(catalogSvc, repo, prober, logging.WithComponent(logger, "runner"))
	go runner.Start(ctx)

	fsw, err := watcher.NewFSWatcher(logging.WithComponent(logger, "watcher"))
	if err != nil {
		logger.Warn("filesystem watcher unavailable", "error", err)
	} else {
		defer fsw.Stop()
		fsw.OnChange(func(path string, event watcher.EventType) {
			sources, err := catalogSvc.GetSources(ctx)
			if err != nil {
				return
			}
			for _, src := range sources {
				if strings.HasPrefix(path, src.Path) {
					if _, err := catalogSvc.ScanSource(ctx, src.ID); err != nil {
						logger.Debug("rescan request failed", "source_id", src.ID, "error", err)
					}
					return
				}
			}
		})

		sources, err := catalogSvc.GetSources(ctx)
		if err == nil {
			for _, src := range sources {
				if err := fsw.Watch(ctx, src.Path); err != nil {
					logger.Warn("failed to watch source", "path", src.Path, "error", err)
				}
			}
		}
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		CatalogService: catalogSvc,
		Repository:     repo,
		Runner:         runner,
		PlaybackServer: playbackSvc,
		Project:        proj,
		Preview:        controller,
		Exporter:       exporter,
		Prober:         prober,
		ThumbsDir:      cfg.ThumbsDir(),
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			CatalogService: catalogSvc,
			Runner:         runner,
			Controller:     controller,
			Logger:         logger,
			OnAddFolder: func() error {
				logger.Info("add folder requested from tray (file dialog not implemented in v0)")
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	controller.SetPlaying(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
