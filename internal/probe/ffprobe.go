package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// FFProber shells out to ffprobe/ffmpeg binaries.
type FFProber struct {
	ffprobePath string
	ffmpegPath  string
	logger      *slog.Logger
}

func NewFFProber(ffprobePath, ffmpegPath string, logger *slog.Logger) *FFProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFProber{ffprobePath: ffprobePath, ffmpegPath: ffmpegPath, logger: logger}
}

type ffprobeOutput struct {
	Format  *ffprobeFormat  `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"` // e.g. "30000/1001" for 29.97 fps
	BitRate    string `json:"bit_rate"`
}

func (p *FFProber) Probe(ctx context.Context, path string) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &Metadata{}

	var video *ffprobeStream
	for i := range parsed.Streams {
		if parsed.Streams[i].CodecType == "video" {
			video = &parsed.Streams[i]
			break
		}
	}

	if video != nil {
		meta.Width = video.Width
		meta.Height = video.Height
		meta.FrameRate = ParseFrameRate(video.RFrameRate)
		if br, err := strconv.ParseInt(video.BitRate, 10, 64); err == nil {
			meta.Bitrate = br
		}
	}

	if parsed.Format != nil {
		if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			meta.Duration = d
		}
		if meta.Bitrate == 0 {
			if br, err := strconv.ParseInt(parsed.Format.BitRate, 10, 64); err == nil {
				meta.Bitrate = br
			}
		}
	}

	return meta, nil
}

// ParseFrameRate converts ffprobe's rational frame rate ("30000/1001") or a
// plain decimal into frames per second. Returns 0 when unparseable.
func ParseFrameRate(raw string) float64 {
	if raw == "" {
		return 0
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d <= 0 {
			return 0
		}
		return n / d
	}
	fps, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return fps
}

// Thumbnail extracts one scaled frame. For images ffmpeg decodes the file
// directly; for videos it seeks one second in to skip black lead-ins.
func (p *FFProber) Thumbnail(ctx context.Context, path, outputPath string, timeOffset float64) error {
	args := []string{"-hide_banner", "-v", "error"}
	if timeOffset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(timeOffset, 'f', 2, 64))
	}
	args = append(args,
		"-i", path,
		"-vframes", "1",
		"-vf", "scale=200:-1",
		"-y", outputPath,
	)

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg thumbnail failed: %w: %s", err, lastLine(out))
	}
	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

var _ Prober = (*FFProber)(nil)
