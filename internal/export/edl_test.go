package export

import (
	"strings"
	"testing"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

func TestGenerateEDL_Basic(t *testing.T) {
	items := []Item{
		{Path: "/media/beach.mp4", Kind: "video", Duration: 5},
		{Path: "/media/sunset.mp4", Kind: "video", Duration: 3},
	}

	edl := GenerateEDL(items, timeline.Cover{}, "Summer Trip", 30)

	if !strings.Contains(edl, "TITLE: Summer Trip") {
		t.Error("missing title line")
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Error("30fps should be non-drop frame")
	}
	if !strings.Contains(edl, "001  AX") {
		t.Error("missing first event")
	}
	if !strings.Contains(edl, "002  AX") {
		t.Error("missing second event")
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  beach.mp4") {
		t.Error("missing first clip name")
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /media/sunset.mp4") {
		t.Error("missing second media path")
	}
}

func TestGenerateEDL_RecordTimesAccumulate(t *testing.T) {
	items := []Item{
		{Path: "/media/a.mp4", Kind: "video", Duration: 5},
		{Path: "/media/b.mp4", Kind: "video", Duration: 3},
	}

	edl := GenerateEDL(items, timeline.Cover{}, "Test", 30)

	// Second event records in at 5s where the first left off.
	if !strings.Contains(edl, "00:00:00:00 00:00:03:00 00:00:05:00 00:00:08:00") {
		t.Errorf("second event timecodes wrong:\n%s", edl)
	}
}

func TestGenerateEDL_CoverIsFirstEvent(t *testing.T) {
	items := []Item{{Path: "/media/a.mp4", Kind: "video", Duration: 5}}
	cover := timeline.Cover{Text: "Hello", Duration: 4}

	edl := GenerateEDL(items, cover, "Test", 30)

	if !strings.Contains(edl, "* FROM CLIP NAME:  Title Card") {
		t.Error("cover event missing")
	}

	coverIdx := strings.Index(edl, "Title Card")
	clipIdx := strings.Index(edl, "a.mp4")
	if coverIdx > clipIdx {
		t.Error("cover must come before the first media event")
	}

	// The media event starts recording after the cover.
	if !strings.Contains(edl, "00:00:00:00 00:00:05:00 00:00:04:00 00:00:09:00") {
		t.Errorf("media event should record in at 4s:\n%s", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	items := []Item{{Path: "/media/a.mp4", Kind: "video", Duration: 1}}

	edl := GenerateEDL(items, timeline.Cover{}, "Test", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Error("29.97fps should be drop frame")
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		ms   int
		fps  int
		want string
	}{
		{0, 30, "00:00:00:00"},
		{1000, 30, "00:00:01:00"},
		{1500, 30, "00:00:01:15"},
		{60000, 30, "00:01:00:00"},
		{3600000, 30, "01:00:00:00"},
		{500, 25, "00:00:00:13"},
	}

	for _, tt := range tests {
		if got := msToTimecode(tt.ms, tt.fps); got != tt.want {
			t.Errorf("msToTimecode(%d, %d) = %s, want %s", tt.ms, tt.fps, got, tt.want)
		}
	}
}
