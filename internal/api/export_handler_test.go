package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

func TestExportEDL_WritesFile(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 5)
	seedProbedVideo(t, f.repo, "file-2", "/library/b.mp4", 3)
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-2"})

	outDir := t.TempDir()
	rr := f.do(t, http.MethodPost, "/export/edl", ExportEDLRequest{
		OutputDir:   outDir,
		ProjectName: "My Cut",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	if body["event_count"] != float64(2) {
		t.Errorf("event_count = %v, want 2", body["event_count"])
	}

	outputPath := filepath.Join(outDir, "My Cut.edl")
	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("expected EDL at %s: %v", outputPath, err)
	}

	content := string(raw)
	if !strings.Contains(content, "TITLE: My Cut") {
		t.Error("EDL missing title line")
	}
	if !strings.Contains(content, "/library/a.mp4") {
		t.Error("EDL missing media path for first item")
	}
}

func TestExportEDL_CoverAddsEvent(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 5)
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})
	f.do(t, http.MethodPut, "/project/cover", timeline.Cover{
		Text: "Intro", Duration: 3, ColorScheme: "whiteOnBlack",
	})

	outDir := t.TempDir()
	rr := f.do(t, http.MethodPost, "/export/edl", ExportEDLRequest{OutputDir: outDir})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	if body["event_count"] != float64(2) {
		t.Errorf("event_count = %v, want 2 (cover + video)", body["event_count"])
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "snapcut_export.edl"))
	if err != nil {
		t.Fatalf("expected EDL with default name: %v", err)
	}
	if !strings.Contains(string(raw), "Title Card") {
		t.Error("EDL missing title card clip name")
	}
}

func TestExportEDL_EmptyProject(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodPost, "/export/edl", ExportEDLRequest{OutputDir: t.TempDir()})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportEDL_BadOutputDir(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodPost, "/export/edl", ExportEDLRequest{OutputDir: "/nonexistent/dir"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing dir status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = f.do(t, http.MethodPost, "/export/edl", ExportEDLRequest{OutputDir: "../relative"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("traversal dir status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportVideo_ValidatesDimensions(t *testing.T) {
	f := setupAPI(t)
	seedProbedVideo(t, f.repo, "file-1", "/library/a.mp4", 5)
	f.do(t, http.MethodPost, "/project/items", AddItemRequest{FileID: "file-1"})

	rr := f.do(t, http.MethodPost, "/export/video", ExportVideoRequest{
		OutputDir: t.TempDir(),
		Width:     0,
		Height:    1080,
		Codec:     "h264",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExportVideo_EmptyProject(t *testing.T) {
	f := setupAPI(t)

	rr := f.do(t, http.MethodPost, "/export/video", ExportVideoRequest{
		OutputDir: t.TempDir(),
		Width:     1920,
		Height:    1080,
		Codec:     "h264",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
