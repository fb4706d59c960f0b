package probe

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"ntsc fraction", "30000/1001", 29.97002997},
		{"integer fraction", "30/1", 30},
		{"plain decimal", "25", 25},
		{"empty", "", 0},
		{"zero denominator", "30/0", 0},
		{"garbage", "abc", 0},
		{"garbage fraction", "a/b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFrameRate(tt.raw)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ParseFrameRate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestProbeOutputParsing(t *testing.T) {
	// The JSON shape ffprobe emits with -show_format -show_streams.
	raw := []byte(`{
		"streams": [
			{"codec_type": "audio", "bit_rate": "128000"},
			{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "bit_rate": "8000000"}
		],
		"format": {"duration": "12.512000", "bit_rate": "8128000"}
	}`)

	var parsed ffprobeOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var video *ffprobeStream
	for i := range parsed.Streams {
		if parsed.Streams[i].CodecType == "video" {
			video = &parsed.Streams[i]
			break
		}
	}
	if video == nil {
		t.Fatal("video stream not found")
	}
	if video.Width != 1920 || video.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", video.Width, video.Height)
	}
	if got := ParseFrameRate(video.RFrameRate); math.Abs(got-29.97) > 0.01 {
		t.Errorf("frame rate = %v, want ~29.97", got)
	}
	if parsed.Format.Duration != "12.512000" {
		t.Errorf("duration = %q", parsed.Format.Duration)
	}
}
