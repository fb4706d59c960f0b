package catalog

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Source struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Present     bool      `json:"present"`
	CreatedAt   time.Time `json:"created_at"`
}

// MediaFile is one cataloged media file. Duration, dimensions and frame
// rate are filled in by the probe job after the scan discovers the file.
type MediaFile struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Kind        string    `json:"kind"` // "video" or "image"
	Size        int64     `json:"size"`
	Mtime       time.Time `json:"mtime"`
	Fingerprint string    `json:"fingerprint"`
	Duration    float64   `json:"duration"` // seconds; 0 until probed
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	FrameRate   float64   `json:"frame_rate,omitempty"`
	Probed      bool      `json:"probed"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	JobTypeScan  = "scan"
	JobTypeProbe = "probe"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	SourceID  string    `json:"source_id,omitempty"`
	FileID    string    `json:"file_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// KindForFile classifies a filename by extension. Returns "" for files the
// catalog does not ingest.
func KindForFile(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case VideoExtensions[ext]:
		return "video"
	case ImageExtensions[ext]:
		return "image"
	default:
		return ""
	}
}
