package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

// fpsTolerance is how far apart two frame rates can be and still count as
// matching for stream-copy purposes.
const fpsTolerance = 0.5

// CanFastConcat reports whether the whole timeline can be joined with the
// concat demuxer and stream copy: at least two items, all videos, no cover,
// and uniform resolution and frame rate.
func CanFastConcat(items []Item, cover timeline.Cover) bool {
	if cover.Enabled() {
		return false
	}
	if len(items) < 2 {
		return false
	}
	for _, item := range items {
		if item.Kind != "video" {
			return false
		}
	}

	ref := items[0]
	for _, item := range items[1:] {
		if item.Width != ref.Width || item.Height != ref.Height {
			return false
		}
		if math.Abs(item.FrameRate-ref.FrameRate) >= fpsTolerance {
			return false
		}
	}
	return true
}

// canStreamCopy reports whether a single video already matches the target
// format and needs no re-encode.
func canStreamCopy(item Item, cfg Config) bool {
	if item.Kind != "video" {
		return false
	}
	return item.Width == cfg.Width &&
		item.Height == cfg.Height &&
		math.Abs(item.FrameRate-cfg.FrameRate) < fpsTolerance
}

// ConcatListContent renders the concat demuxer file list. Single quotes in
// paths use the shell-style '\'' escape ffmpeg expects.
func ConcatListContent(items []Item) string {
	var b strings.Builder
	for _, item := range items {
		escaped := strings.ReplaceAll(item.Path, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

// BuildFilterGraph produces the input arguments and -filter_complex string
// for a full re-encode: an optional generated cover card, then each item
// scaled and padded to the target frame, all joined by the concat filter.
// Images get a looped video input plus a silent audio bed; the cover gets a
// solid color source plus silence.
func BuildFilterGraph(items []Item, cover timeline.Cover, cfg Config) (inputs []string, filterComplex string) {
	var filterParts []string
	var concatInputs []string
	streamIdx := 0

	if cover.Enabled() {
		bgColor, fontColor := "white", "black"
		if cover.ColorScheme == timeline.SchemeWhiteOnBlack {
			bgColor, fontColor = "black", "white"
		}

		inputs = append(inputs, "-f", "lavfi", "-i",
			fmt.Sprintf("color=%s:s=%dx%d:d=%s:r=%s",
				bgColor, cfg.Width, cfg.Height, formatSeconds(cover.Duration), formatFPS(cfg.FrameRate)))
		inputs = append(inputs, "-f", "lavfi", "-i",
			fmt.Sprintf("anullsrc=r=48000:cl=stereo:d=%s", formatSeconds(cover.Duration)))

		fontSize := CoverFontSize(cover.Text, cfg.Height)
		filterParts = append(filterParts, fmt.Sprintf(
			"[%d:v]drawtext=text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=(h-text_h)/2:font=OpenSans-Bold:line_spacing=8,format=yuv420p,setsar=1[cv%d]",
			streamIdx, EscapeDrawtext(cover.Text), fontSize, fontColor, streamIdx))
		filterParts = append(filterParts, fmt.Sprintf(
			"[%d:a]aformat=sample_rates=48000:channel_layouts=stereo[ca%d]",
			streamIdx+1, streamIdx))

		concatInputs = append(concatInputs, fmt.Sprintf("[cv%d][ca%d]", streamIdx, streamIdx))
		streamIdx += 2
	}

	for i, item := range items {
		if item.Kind == "image" {
			inputs = append(inputs, "-loop", "1", "-t", formatSeconds(item.Duration), "-i", item.Path)
			inputs = append(inputs, "-f", "lavfi", "-i",
				fmt.Sprintf("anullsrc=r=48000:cl=stereo:d=%s", formatSeconds(item.Duration)))

			filterParts = append(filterParts, scaleFilter(streamIdx, i, cfg))
			filterParts = append(filterParts, fmt.Sprintf(
				"[%d:a]aformat=sample_rates=48000:channel_layouts=stereo[a%d]", streamIdx+1, i))

			concatInputs = append(concatInputs, fmt.Sprintf("[v%d][a%d]", i, i))
			streamIdx += 2
			continue
		}

		inputs = append(inputs, "-i", item.Path)

		needsProcessing := item.Width != cfg.Width ||
			item.Height != cfg.Height ||
			math.Abs(item.FrameRate-cfg.FrameRate) > fpsTolerance
		if needsProcessing {
			filterParts = append(filterParts, scaleFilter(streamIdx, i, cfg))
		} else {
			filterParts = append(filterParts, fmt.Sprintf(
				"[%d:v]format=yuv420p,setsar=1[v%d]", streamIdx, i))
		}

		filterParts = append(filterParts, fmt.Sprintf(
			"[%d:a]aformat=sample_rates=48000:channel_layouts=stereo[a%d]", streamIdx, i))

		concatInputs = append(concatInputs, fmt.Sprintf("[v%d][a%d]", i, i))
		streamIdx++
	}

	filterParts = append(filterParts, fmt.Sprintf(
		"%sconcat=n=%d:v=1:a=1[outv][outa]",
		strings.Join(concatInputs, ""), len(concatInputs)))

	return inputs, strings.Join(filterParts, ";")
}

func scaleFilter(streamIdx, outIdx int, cfg Config) string {
	return fmt.Sprintf(
		"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1,fps=%s,format=yuv420p[v%d]",
		streamIdx, cfg.Width, cfg.Height, cfg.Width, cfg.Height, formatFPS(cfg.FrameRate), outIdx)
}

// CoverFontSize sizes the title text responsively: base size is a twelfth of
// the frame height, shrunk for long text and again for multiline text.
func CoverFontSize(text string, frameHeight int) int {
	lineCount := strings.Count(text, "\n") + 1
	base := float64(frameHeight) / 12.0

	sizeFactor := 1.0
	switch textLen := len(text); {
	case textLen > 50:
		sizeFactor = 0.6
	case textLen > 30:
		sizeFactor = 0.75
	}

	lineFactor := 1.0
	switch {
	case lineCount > 3:
		lineFactor = 0.7
	case lineCount > 1:
		lineFactor = 0.85
	}

	return int(math.Round(base * sizeFactor * lineFactor))
}

// EscapeDrawtext escapes cover text for the drawtext filter. Newlines become
// the filter's \n escape; carriage returns are dropped.
func EscapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `'\''`,
		`:`, `\:`,
		`[`, `\[`,
		`]`, `\]`,
		"\n", `\n`,
		"\r", "",
	)
	return r.Replace(text)
}

// encoderArgs returns the codec arguments for the chosen encode path.
func encoderArgs(cfg Config, useHW bool) []string {
	switch {
	case cfg.Codec == "prores":
		return []string{
			"-c:v", "prores_ks",
			"-profile:v", "3",
			"-c:a", "pcm_s16le",
		}
	case useHW:
		bitrate := cfg.Bitrate
		if bitrate == 0 {
			bitrate = 10_000_000
		}
		return []string{
			"-c:v", "h264_videotoolbox",
			"-b:v", strconv.FormatInt(bitrate, 10),
			"-realtime", "1",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac",
			"-b:a", "192k",
		}
	default:
		args := []string{
			"-c:v", "libx264",
			"-preset", "ultrafast",
			"-tune", "fastdecode",
			"-crf", "23",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac",
			"-b:a", "192k",
		}
		if cfg.Bitrate > 0 {
			args = append(args, "-b:v", strconv.FormatInt(cfg.Bitrate, 10))
		}
		return args
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
