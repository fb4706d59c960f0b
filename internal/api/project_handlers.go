package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

func listItemsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := cfg.Project.Items(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func addItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.FileID == "" {
			WriteError(w, http.StatusBadRequest, "file_id is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Project.AddItem(r.Context(), req.FileID); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, TimelineResponse{Timeline: cfg.Project.Timeline()})
	}
}

func setItemsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Project.SetItems(r.Context(), req.FileIDs); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, TimelineResponse{Timeline: cfg.Project.Timeline()})
	}
}

func removeItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "index must be an integer", "BAD_REQUEST")
			return
		}

		if err := cfg.Project.RemoveItem(r.Context(), index); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, TimelineResponse{Timeline: cfg.Project.Timeline()})
	}
}

func moveItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Project.MoveItem(r.Context(), req.From, req.To); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, TimelineResponse{Timeline: cfg.Project.Timeline()})
	}
}

func getCoverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Project.Cover())
	}
}

func setCoverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cover timeline.Cover
		if err := json.NewDecoder(r.Body).Decode(&cover); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Project.SetCover(r.Context(), cover); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, TimelineResponse{Timeline: cfg.Project.Timeline()})
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, TimelineResponse{Timeline: cfg.Project.Timeline()})
	}
}

func transportStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Preview.Snapshot())
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Preview.SetPlaying(true)
		WriteJSON(w, http.StatusOK, cfg.Preview.Snapshot())
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Preview.SetPlaying(false)
		WriteJSON(w, http.StatusOK, cfg.Preview.Snapshot())
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		cfg.Preview.Seek(req.Time)
		WriteJSON(w, http.StatusOK, cfg.Preview.Snapshot())
	}
}

// timeUpdateHandler ingests playback progress reported by a video surface.
func timeUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev TimeUpdateEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if ev.MediaID == "" {
			WriteError(w, http.StatusBadRequest, "media_id is required", "BAD_REQUEST")
			return
		}

		cfg.Preview.HandleTimeUpdate(ev.MediaID, ev.Time)
		w.WriteHeader(http.StatusNoContent)
	}
}

func endedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev EndedEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if ev.MediaID == "" {
			WriteError(w, http.StatusBadRequest, "media_id is required", "BAD_REQUEST")
			return
		}

		cfg.Preview.HandleEnded(ev.MediaID)
		w.WriteHeader(http.StatusNoContent)
	}
}
