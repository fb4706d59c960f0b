package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

// Exporter drives ffmpeg to render the timeline. It picks the cheapest path
// that preserves the output: stream copy when formats already match, a
// concat-demuxer join when the whole timeline is uniform video, and a full
// filter-graph re-encode otherwise.
type Exporter struct {
	ffmpegPath string
	logger     *slog.Logger
}

func NewExporter(ffmpegPath string, logger *slog.Logger) *Exporter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Exporter{ffmpegPath: ffmpegPath, logger: logger}
}

// EncoderAvailable checks whether ffmpeg lists the named encoder.
func (e *Exporter) EncoderAvailable(ctx context.Context, name string) bool {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, "-hide_banner", "-encoders")
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), name)
}

// Export renders the items plus optional cover to outputPath and returns the
// final path, which may differ from the request when container rules force a
// different extension.
func (e *Exporter) Export(ctx context.Context, items []Item, cover timeline.Cover, cfg Config, outputPath string, progress ProgressFunc) (string, error) {
	if len(items) == 0 && !cover.Enabled() {
		return "", fmt.Errorf("nothing to export")
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	report(progress, Progress{Stage: "preparing", Progress: 0})

	useHW := cfg.Codec != "prores" && e.EncoderAvailable(ctx, "h264_videotoolbox")

	if CanFastConcat(items, cover) {
		return e.exportFastConcat(ctx, items, outputPath, progress)
	}

	if len(items) == 1 && !cover.Enabled() {
		item := items[0]
		if canStreamCopy(item, cfg) {
			return e.exportStreamCopy(ctx, item, outputPath, progress)
		}
		return e.exportSingleVideo(ctx, item, cfg, outputPath, useHW, progress)
	}

	return e.exportFilterGraph(ctx, items, cover, cfg, outputPath, useHW, progress)
}

func (e *Exporter) exportFastConcat(ctx context.Context, items []Item, outputPath string, progress ProgressFunc) (string, error) {
	report(progress, Progress{Stage: "processing", Progress: 10, Detail: "fast concat (no re-encoding)"})

	listPath := filepath.Join(os.TempDir(), "snapcut_concat_"+uuid.NewString()+".txt")
	if err := os.WriteFile(listPath, []byte(ConcatListContent(items)), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	// Joining MOV sources into an .mp4 container loses timecode tracks;
	// keep the source container instead.
	inputExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(items[0].Path), "."))
	finalOutput := outputPath
	if strings.HasSuffix(outputPath, ".mp4") && inputExt == "mov" {
		finalOutput = strings.TrimSuffix(outputPath, ".mp4") + ".mov"
	}

	args := []string{
		"-hide_banner",
		"-v", "error",
		"-stats",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", finalOutput,
	}

	if err := e.runFFmpeg(ctx, args); err != nil {
		report(progress, Progress{Stage: "processing", Error: err.Error()})
		return "", err
	}

	report(progress, Progress{Stage: "complete", Progress: 100})
	return finalOutput, nil
}

func (e *Exporter) exportStreamCopy(ctx context.Context, item Item, outputPath string, progress ProgressFunc) (string, error) {
	report(progress, Progress{Stage: "processing", Progress: 10, Detail: "stream copy"})

	args := []string{
		"-hide_banner",
		"-i", item.Path,
		"-c", "copy",
		"-y", outputPath,
	}
	if err := e.runFFmpeg(ctx, args); err != nil {
		report(progress, Progress{Stage: "processing", Error: err.Error()})
		return "", err
	}

	report(progress, Progress{Stage: "complete", Progress: 100})
	return outputPath, nil
}

func (e *Exporter) exportSingleVideo(ctx context.Context, item Item, cfg Config, outputPath string, useHW bool, progress ProgressFunc) (string, error) {
	report(progress, Progress{Stage: "processing", Progress: 10, Detail: "re-encoding single video"})

	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1,fps=%s",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, formatFPS(cfg.FrameRate))

	args := []string{"-hide_banner", "-threads", "0"}
	if useHW {
		args = append(args, "-hwaccel", "videotoolbox")
	}
	args = append(args, "-i", item.Path, "-vf", filter)
	args = append(args, encoderArgs(cfg, useHW)...)
	args = append(args, "-ar", "48000", "-ac", "2")
	args = append(args, "-y", outputPath)

	if err := e.runFFmpeg(ctx, args); err != nil {
		report(progress, Progress{Stage: "processing", Error: err.Error()})
		return "", err
	}

	report(progress, Progress{Stage: "complete", Progress: 100})
	return outputPath, nil
}

func (e *Exporter) exportFilterGraph(ctx context.Context, items []Item, cover timeline.Cover, cfg Config, outputPath string, useHW bool, progress ProgressFunc) (string, error) {
	report(progress, Progress{Stage: "processing", Progress: 10, Detail: "building filter graph"})

	inputs, filterComplex := BuildFilterGraph(items, cover, cfg)

	// lavfi inputs cannot be hardware-decoded, so -hwaccel is omitted here
	// even when the encoder is hardware-backed.
	args := []string{"-hide_banner", "-threads", "0"}
	args = append(args, inputs...)
	args = append(args,
		"-filter_complex", filterComplex,
		"-map", "[outv]",
		"-map", "[outa]",
	)
	args = append(args, encoderArgs(cfg, useHW)...)

	finalOutput := outputPath
	if cfg.Codec == "prores" && strings.HasSuffix(outputPath, ".mp4") {
		finalOutput = strings.TrimSuffix(outputPath, ".mp4") + ".mov"
	}
	args = append(args, "-y", finalOutput)

	report(progress, Progress{Stage: "processing", Progress: 15, Detail: "encoding"})

	if err := e.runFFmpeg(ctx, args); err != nil {
		report(progress, Progress{Stage: "processing", Error: err.Error()})
		return "", err
	}

	report(progress, Progress{Stage: "finalizing", Progress: 95})
	if _, err := os.Stat(finalOutput); err != nil {
		return "", fmt.Errorf("output file was not created")
	}

	report(progress, Progress{Stage: "complete", Progress: 100})
	return finalOutput, nil
}

func (e *Exporter) runFFmpeg(ctx context.Context, args []string) error {
	e.logger.Info("running ffmpeg", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := extractFFmpegError(string(out))
		e.logger.Error("ffmpeg failed", "error", err, "detail", msg)
		return fmt.Errorf("ffmpeg: %s", msg)
	}
	return nil
}

// extractFFmpegError digs the most useful line out of ffmpeg's stderr: the
// last line mentioning an error, or failing that the last nonempty line.
func extractFFmpegError(output string) string {
	var lastNonEmpty, lastError string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastNonEmpty = line
		if strings.Contains(line, "Error") || strings.Contains(line, "error") ||
			strings.Contains(line, "Invalid") || strings.Contains(line, "No such") {
			lastError = line
		}
	}
	if lastError != "" {
		return lastError
	}
	if lastNonEmpty != "" {
		return lastNonEmpty
	}
	return "unknown ffmpeg error"
}

func report(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
