package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/snapcut/snapcut-agent/internal/catalog"
	"github.com/snapcut/snapcut-agent/internal/export"
	"github.com/snapcut/snapcut-agent/internal/playback"
	"github.com/snapcut/snapcut-agent/internal/preview"
	"github.com/snapcut/snapcut-agent/internal/probe"
	"github.com/snapcut/snapcut-agent/internal/project"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	CatalogService catalog.CatalogService
	Repository     catalog.Repository
	Runner         *catalog.Runner
	PlaybackServer playback.FileServer
	Project        *project.Service
	Preview        *preview.Controller
	Exporter       *export.Exporter
	Prober         probe.Prober
	ThumbsDir      string
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // media streaming and exports run long
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
