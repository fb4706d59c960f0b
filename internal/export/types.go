// Package export renders the project timeline to a single video file via
// ffmpeg, and generates EDL documents for handoff to external editors.
package export

// Item is one timeline entry resolved to its on-disk media.
type Item struct {
	Path      string  `json:"path"`
	Kind      string  `json:"kind"` // "video" or "image"
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
}

// Config describes the output format.
type Config struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Codec     string  `json:"codec"` // "h264" or "prores"
	FrameRate float64 `json:"frame_rate"`
	Bitrate   int64   `json:"bitrate,omitempty"` // bits per second; 0 for encoder default
}

// DefaultFrameRate is used when the request does not pin one.
const DefaultFrameRate = 30.0

type Progress struct {
	Stage    string  `json:"stage"` // "preparing", "processing", "finalizing", "complete"
	Progress float64 `json:"progress"`
	Detail   string  `json:"detail,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type ProgressFunc func(Progress)

type Response struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	ItemCount  int    `json:"item_count"`
	FastConcat bool   `json:"fast_concat"`
}
