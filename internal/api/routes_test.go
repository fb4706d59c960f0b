package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapcut/snapcut-agent/internal/catalog"
	"github.com/snapcut/snapcut-agent/internal/db"
	"github.com/snapcut/snapcut-agent/internal/playback"
	"github.com/snapcut/snapcut-agent/internal/preview"
	"github.com/snapcut/snapcut-agent/internal/project"
)

const testToken = "test-token"

type apiFixture struct {
	cfg    ServerConfig
	repo   catalog.Repository
	router http.Handler
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := catalog.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), "auth_token", testToken); err != nil {
		t.Fatalf("failed to seed auth token: %v", err)
	}

	controller := preview.NewController(preview.NewTickerClock(60), preview.DefaultOptions(), logger)
	proj := project.NewService(repo, controller, logger)

	cfg := ServerConfig{
		CatalogService: catalog.NewService(repo, logger),
		Repository:     repo,
		PlaybackServer: playback.NewServer(logger),
		Project:        proj,
		Preview:        controller,
		Logger:         logger,
		StartTime:      time.Now(),
		DeviceID:       "test-device",
	}

	return &apiFixture{cfg: cfg, repo: repo, router: NewRouter(cfg)}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

// seedProbedVideo inserts a media file the way a completed scan+probe would.
func seedProbedVideo(t *testing.T, repo catalog.Repository, id, path string, duration float64) {
	t.Helper()

	ctx := context.Background()
	src, err := repo.GetSourceByPath(ctx, "/library")
	if err != nil {
		t.Fatalf("GetSourceByPath() error = %v", err)
	}
	if src == nil {
		src = &catalog.Source{
			ID:          "src-1",
			Type:        "folder",
			Path:        "/library",
			DisplayName: "Library",
			Present:     true,
			CreatedAt:   time.Now(),
		}
		if err := repo.CreateSource(ctx, src); err != nil {
			t.Fatalf("CreateSource() error = %v", err)
		}
	}

	file := &catalog.MediaFile{
		ID:        id,
		SourceID:  src.ID,
		Path:      path,
		Filename:  filepath.Base(path),
		Kind:      "video",
		Size:      1024,
		Mtime:     time.Now(),
		CreatedAt: time.Now(),
	}
	if err := repo.UpsertFile(ctx, file); err != nil {
		t.Fatalf("UpsertFile() error = %v", err)
	}
	if err := repo.UpdateFileProbe(ctx, id, duration, 1920, 1080, 30); err != nil {
		t.Fatalf("UpdateFileProbe() error = %v", err)
	}
}

func TestHealthHandler_NoAuthRequired(t *testing.T) {
	f := setupAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["device_id"] != "test-device" {
		t.Errorf("device_id = %v, want test-device", body["device_id"])
	}
}

func TestAuthRequired(t *testing.T) {
	f := setupAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status with bad token = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestStatusHandler_Idle(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodGet, "/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["state"] != "idle" {
		t.Errorf("state = %v, want idle", body["state"])
	}

	playbackMap, ok := body["playback"].(map[string]interface{})
	if !ok {
		t.Fatal("playback missing from response")
	}
	if playbackMap["state"] != string(preview.StateIdle) {
		t.Errorf("playback.state = %v, want %v", playbackMap["state"], preview.StateIdle)
	}
}

func TestAddFolderAndListSources(t *testing.T) {
	f := setupAPI(t)
	dir := t.TempDir()

	rr := f.do(t, http.MethodPost, "/sources/folders", AddFolderRequest{Path: dir, DisplayName: "Clips"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add folder status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = f.do(t, http.MethodGet, "/sources", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list sources status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp SourcesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode sources: %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(resp.Sources))
	}
	if resp.Sources[0].DisplayName != "Clips" {
		t.Errorf("display_name = %s, want Clips", resp.Sources[0].DisplayName)
	}
}

func TestProjectItems_AddAndTimeline(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 5)
	seedProbedVideo(t, f.repo, "file-2", "/library/b.mp4", 3)

	rr := f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add item status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-2"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add item status = %d, want %d", rr.Code, http.StatusCreated)
	}

	rr = f.do(t, http.MethodGet, "/timeline", nil)
	var resp TimelineResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode timeline: %v", err)
	}
	if len(resp.Timeline.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(resp.Timeline.Segments))
	}
	if resp.Timeline.Total != 8 {
		t.Errorf("total duration = %v, want 8", resp.Timeline.Total)
	}
}

func TestProjectItems_AddUnknownFile(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "nope"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestProjectItems_RemoveBadIndex(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodDelete, "/project/items/abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("non-integer index status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = f.do(t, http.MethodDelete, "/project/items/5", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range index status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestProjectCover_RoundTrip(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 5)
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})

	rr := f.do(t, http.MethodPut, "/project/cover", map[string]any{
		"text":         "My Trip",
		"duration":     3.0,
		"color_scheme": "blackOnWhite",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("set cover status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp TimelineResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode timeline: %v", err)
	}
	if len(resp.Timeline.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (cover + video)", len(resp.Timeline.Segments))
	}
	if resp.Timeline.Total != 8 {
		t.Errorf("total duration = %v, want 8", resp.Timeline.Total)
	}

	rr = f.do(t, http.MethodGet, "/project/cover", nil)
	body := decodeJSONBody(t, rr)
	if body["text"] != "My Trip" {
		t.Errorf("cover text = %v, want My Trip", body["text"])
	}
}

func TestTransport_PlayPauseSeek(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 10)
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})

	rr := f.do(t, http.MethodPost, "/transport/play", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("play status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["playing"] != true {
		t.Errorf("playing after play = %v, want true", body["playing"])
	}

	rr = f.do(t, http.MethodPost, "/transport/seek", SeekRequest{Time: 4.5})
	body = decodeJSONBody(t, rr)
	if body["preview_time"] != 4.5 {
		t.Errorf("preview_time after seek = %v, want 4.5", body["preview_time"])
	}

	rr = f.do(t, http.MethodPost, "/transport/pause", nil)
	body = decodeJSONBody(t, rr)
	if body["playing"] != false {
		t.Errorf("playing after pause = %v, want false", body["playing"])
	}
}

func TestEvents_RequireMediaID(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodPost, "/events/time", TimeUpdateEvent{Time: 1.0})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("time event without media_id status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = f.do(t, http.MethodPost, "/events/ended", EndedEvent{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("ended event without media_id status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEvents_Accepted(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 10)
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})

	rr := f.do(t, http.MethodPost, "/events/time", TimeUpdateEvent{MediaID: "file-1", Time: 2.0})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("time event status = %d, want %d", rr.Code, http.StatusNoContent)
	}
}

func TestPlaybackFile_ServesRange(t *testing.T) {
	f := setupAPI(t)

	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(mediaPath, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("failed to write media file: %v", err)
	}
	seedProbedVideo(t, f.repo, "file-1", mediaPath, 5)

	req := httptest.NewRequest(http.MethodGet, "/playback/file?file_id=file-1", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Range", "bytes=2-5")
	req.RemoteAddr = "127.0.0.1:54321"
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusPartialContent)
	}
	if got := rr.Body.String(); got != "2345" {
		t.Errorf("body = %q, want %q", got, "2345")
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q, want %q", got, "bytes 2-5/10")
	}
}

func TestPlaybackFile_MissingFileID(t *testing.T) {
	f := setupAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.RemoteAddr = "127.0.0.1:54321"
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}
