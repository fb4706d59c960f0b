package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/snapcut/snapcut-agent/internal/catalog"
	"github.com/snapcut/snapcut-agent/internal/preview"
	"github.com/snapcut/snapcut-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State        string            `json:"state"`
	LastError    string            `json:"last_error,omitempty"`
	SourcesCount int               `json:"sources_count"`
	FilesCount   int               `json:"files_count"`
	LibrarySize  string            `json:"library_size"`
	JobsRunning  int               `json:"jobs_running"`
	ActiveJob    *JobResponse      `json:"active_job,omitempty"`
	Playback     *preview.Snapshot `json:"playback,omitempty"`
}

type AddFolderRequest struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
}

type AddFolderResponse struct {
	SourceID string `json:"source_id"`
}

type SourceResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Present     bool   `json:"present"`
	CreatedAt   string `json:"created_at"`
}

type SourcesResponse struct {
	Sources []SourceResponse `json:"sources"`
}

type ScanRequest struct {
	SourceID string `json:"source_id,omitempty"`
}

type ScanResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SourceID  string `json:"source_id,omitempty"`
	FileID    string `json:"file_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type FileResponse struct {
	ID        string  `json:"id"`
	SourceID  string  `json:"source_id"`
	Path      string  `json:"path"`
	Filename  string  `json:"filename"`
	Kind      string  `json:"kind"`
	Size      int64   `json:"size"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	Probed    bool    `json:"probed"`
	CreatedAt string  `json:"created_at"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type AddItemRequest struct {
	FileID string `json:"file_id"`
}

type SetItemsRequest struct {
	FileIDs []string `json:"file_ids"`
}

type MoveItemRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type TimeUpdateEvent struct {
	MediaID string  `json:"media_id"`
	Time    float64 `json:"time"` // seconds into the media item
}

type EndedEvent struct {
	MediaID string `json:"media_id"`
}

type TimelineResponse struct {
	Timeline timeline.Timeline `json:"timeline"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SourceToResponse(s *catalog.Source) SourceResponse {
	return SourceResponse{
		ID:          s.ID,
		Type:        s.Type,
		Path:        s.Path,
		DisplayName: s.DisplayName,
		Present:     s.Present,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		SourceID:  j.SourceID,
		FileID:    j.FileID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func FileToResponse(f *catalog.MediaFile) FileResponse {
	return FileResponse{
		ID:        f.ID,
		SourceID:  f.SourceID,
		Path:      f.Path,
		Filename:  f.Filename,
		Kind:      f.Kind,
		Size:      f.Size,
		Duration:  f.Duration,
		Width:     f.Width,
		Height:    f.Height,
		FrameRate: f.FrameRate,
		Probed:    f.Probed,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func formatLibrarySize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}
