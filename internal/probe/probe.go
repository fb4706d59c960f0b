// Package probe extracts media metadata through ffprobe and renders
// thumbnails through ffmpeg. The catalog's probe jobs run it once per
// discovered file; the results feed item durations into the timeline.
package probe

import (
	"context"
	"log/slog"
)

// Metadata is the probed description of one media file.
type Metadata struct {
	Duration  float64 // seconds
	Width     int
	Height    int
	FrameRate float64 // frames per second; 0 when unknown
	Bitrate   int64   // bits per second; 0 when unknown
}

// Prober extracts metadata and thumbnails from media files.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
	// Thumbnail writes a small JPEG preview of the media to outputPath.
	Thumbnail(ctx context.Context, path, outputPath string, timeOffset float64) error
}

// StubProber satisfies Prober without external binaries, for test wiring
// and for hosts without a bundled ffmpeg.
type StubProber struct {
	logger *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{logger: logger}
}

func (p *StubProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	p.logger.Info("probe stub: metadata requested (ffprobe not configured)", "path", path)
	return &Metadata{}, nil
}

func (p *StubProber) Thumbnail(ctx context.Context, path, outputPath string, timeOffset float64) error {
	p.logger.Info("probe stub: thumbnail requested",
		"input", path, "output", outputPath, "offset", timeOffset)
	return nil
}

var _ Prober = (*StubProber)(nil)
