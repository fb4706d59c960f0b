package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapcut/snapcut-agent/internal/export"
)

type ExportEDLRequest struct {
	OutputDir   string  `json:"output_dir"`
	ProjectName string  `json:"project_name,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
}

type ExportEDLResponse struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	EventCount int    `json:"event_count"`
}

type ExportVideoRequest struct {
	OutputDir string  `json:"output_dir"`
	Filename  string  `json:"filename,omitempty"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Codec     string  `json:"codec"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	Bitrate   int     `json:"bitrate,omitempty"`
}

// resolveExportItems maps the ordered project items to their on-disk files.
// An item whose file has vanished from the catalog fails the whole export;
// rendering around a hole would silently change the cut.
func resolveExportItems(cfg ServerConfig, r *http.Request) ([]export.Item, error) {
	projectItems, err := cfg.Project.Items(r.Context())
	if err != nil {
		return nil, err
	}

	items := make([]export.Item, 0, len(projectItems))
	for _, it := range projectItems {
		file, err := cfg.CatalogService.GetFile(r.Context(), it.FileID)
		if err != nil {
			return nil, err
		}
		if file == nil {
			return nil, &missingFileError{fileID: it.FileID}
		}
		items = append(items, export.Item{
			Path:      file.Path,
			Kind:      file.Kind,
			Duration:  it.Duration,
			Width:     file.Width,
			Height:    file.Height,
			FrameRate: file.FrameRate,
		})
	}
	return items, nil
}

type missingFileError struct {
	fileID string
}

func (e *missingFileError) Error() string {
	return "file no longer in catalog: " + e.fileID
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportEDLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		projectName := export.SanitizeName(req.ProjectName, 120)
		if projectName == "" {
			projectName = "snapcut_export"
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = export.DefaultFrameRate
		}

		items, err := resolveExportItems(cfg, r)
		if err != nil {
			status := http.StatusInternalServerError
			code := "INTERNAL_ERROR"
			if _, ok := err.(*missingFileError); ok {
				status = http.StatusUnprocessableEntity
				code = "UNRESOLVABLE_ITEMS"
			}
			WriteError(w, status, err.Error(), code)
			return
		}

		cover := cfg.Project.Cover()
		if len(items) == 0 && !cover.Enabled() {
			WriteError(w, http.StatusBadRequest, "project is empty", "BAD_REQUEST")
			return
		}

		edl := export.GenerateEDL(items, cover, projectName, frameRate)
		outputPath := filepath.Join(req.OutputDir, projectName+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		eventCount := len(items)
		if cover.Enabled() {
			eventCount++
		}

		WriteJSON(w, http.StatusOK, ExportEDLResponse{
			Status:     "ok",
			OutputPath: outputPath,
			EventCount: eventCount,
		})
	}
}

func exportVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if req.Width <= 0 || req.Height <= 0 {
			WriteError(w, http.StatusBadRequest, "width and height must be positive", "BAD_REQUEST")
			return
		}

		filename := export.SanitizeName(strings.TrimSuffix(req.Filename, filepath.Ext(req.Filename)), 120)
		if filename == "" {
			filename = "snapcut_export"
		}

		ext := ".mp4"
		if req.Codec == "prores" {
			ext = ".mov"
		}
		outputPath := filepath.Join(req.OutputDir, filename+ext)

		items, err := resolveExportItems(cfg, r)
		if err != nil {
			status := http.StatusInternalServerError
			code := "INTERNAL_ERROR"
			if _, ok := err.(*missingFileError); ok {
				status = http.StatusUnprocessableEntity
				code = "UNRESOLVABLE_ITEMS"
			}
			WriteError(w, status, err.Error(), code)
			return
		}

		cover := cfg.Project.Cover()
		if len(items) == 0 && !cover.Enabled() {
			WriteError(w, http.StatusBadRequest, "project is empty", "BAD_REQUEST")
			return
		}

		exportCfg := export.Config{
			Width:     req.Width,
			Height:    req.Height,
			Codec:     req.Codec,
			FrameRate: req.FrameRate,
			Bitrate:   int64(req.Bitrate),
		}

		fastConcat := export.CanFastConcat(items, cover)

		finalPath, err := cfg.Exporter.Export(r.Context(), items, cover, exportCfg, outputPath, nil)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "EXPORT_FAILED")
			return
		}

		WriteJSON(w, http.StatusOK, export.Response{
			Status:     "ok",
			OutputPath: finalPath,
			ItemCount:  len(items),
			FastConcat: fastConcat,
		})
	}
}
