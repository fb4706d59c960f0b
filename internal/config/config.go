// Package config provides configuration management for the Snapcut Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8787
	DefaultLogLevel = "info"
	DefaultDataDir  = ".snapcut"

	// Environment variable names
	EnvPort     = "SNAPCUT_PORT"
	EnvLogLevel = "SNAPCUT_LOG_LEVEL"
	EnvDataDir  = "SNAPCUT_DATA_DIR"

	// Playback tuning
	EnvDriftTolerance = "SNAPCUT_DRIFT_TOLERANCE_S"
	EnvUpdateThrottle = "SNAPCUT_UPDATE_THROTTLE_MS"
	EnvFrameClockHz   = "SNAPCUT_FRAME_CLOCK_HZ"

	// External binaries
	EnvFFmpegPath  = "SNAPCUT_FFMPEG_PATH"
	EnvFFprobePath = "SNAPCUT_FFPROBE_PATH"

	// Runtime modes
	EnvSimulatePlayback = "SNAPCUT_SIMULATE_PLAYBACK"
	EnvHeadless         = "SNAPCUT_HEADLESS"

	// Database filename
	DBFilename = "snapcut.db"

	// Playback defaults
	DefaultDriftToleranceS  = 0.3
	DefaultUpdateThrottleMs = 33
	DefaultFrameClockHz     = 60
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ThumbsDir() string
	DriftTolerance() float64
	UpdateThrottle() time.Duration
	FrameClockHz() int
	FFmpegPath() string
	FFprobePath() string
	SimulatePlayback() bool
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	driftTolerance float64
	updateThrottle time.Duration
	frameClockHz   int

	ffmpegPath  string
	ffprobePath string

	simulatePlayback bool
	headless         bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		driftTolerance: DefaultDriftToleranceS,
		updateThrottle: DefaultUpdateThrottleMs * time.Millisecond,
		frameClockHz:   DefaultFrameClockHz,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if dt := os.Getenv(EnvDriftTolerance); dt != "" {
		v, err := strconv.ParseFloat(dt, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvDriftTolerance)
		}
		cfg.driftTolerance = v
	}

	if ut := os.Getenv(EnvUpdateThrottle); ut != "" {
		ms, err := strconv.Atoi(ut)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid %s: must be a nonnegative millisecond count", EnvUpdateThrottle)
		}
		cfg.updateThrottle = time.Duration(ms) * time.Millisecond
	}

	if hz := os.Getenv(EnvFrameClockHz); hz != "" {
		v, err := strconv.Atoi(hz)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvFrameClockHz)
		}
		cfg.frameClockHz = v
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)
	cfg.simulatePlayback = boolEnv(EnvSimulatePlayback)
	cfg.headless = boolEnv(EnvHeadless)

	return cfg, nil
}

func boolEnv(name string) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "yes":
		return true
	default:
		return false
	}
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ThumbsDir returns the thumbnail cache directory
func (c *EnvConfig) ThumbsDir() string {
	return filepath.Join(c.dataDir, "thumbs")
}

// DriftTolerance returns the playback drift tolerance in seconds
func (c *EnvConfig) DriftTolerance() float64 {
	return c.driftTolerance
}

// UpdateThrottle returns the minimum spacing between accepted media time updates
func (c *EnvConfig) UpdateThrottle() time.Duration {
	return c.updateThrottle
}

// FrameClockHz returns the synthetic frame clock rate
func (c *EnvConfig) FrameClockHz() int {
	return c.frameClockHz
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// SimulatePlayback reports whether headless simulated decoders should be
// attached to video items
func (c *EnvConfig) SimulatePlayback() bool {
	return c.simulatePlayback
}

// Headless disables the system tray icon
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
