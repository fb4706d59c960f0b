package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

// coverClipName labels the generated title card in EDL output, where no
// media path exists.
const coverClipName = "Title Card"

// GenerateEDL renders a CMX3600-style edit decision list for the timeline:
// one event per segment, sources starting at zero, record times accumulating
// in project order. The cover, when enabled, appears as the first event.
func GenerateEDL(items []Item, cover timeline.Cover, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	type event struct {
		name       string
		mediaPath  string
		durationMs int
	}

	var events []event
	if cover.Enabled() {
		events = append(events, event{
			name:       coverClipName,
			durationMs: secondsToMs(cover.Duration),
		})
	}
	for _, item := range items {
		events = append(events, event{
			name:       filepath.Base(item.Path),
			mediaPath:  item.Path,
			durationMs: secondsToMs(item.Duration),
		})
	}

	recordOffsetMs := 0
	for i, ev := range events {
		srcIn := msToTimecode(0, fps)
		srcOut := msToTimecode(ev.durationMs, fps)
		recIn := msToTimecode(recordOffsetMs, fps)
		recOut := msToTimecode(recordOffsetMs+ev.durationMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.name),
		)
		if ev.mediaPath != "" {
			lines = append(lines, fmt.Sprintf("* MEDIA PATH:  %s", ev.mediaPath))
		}

		recordOffsetMs += ev.durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func secondsToMs(s float64) int {
	return int(math.Round(s * 1000))
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
