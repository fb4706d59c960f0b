// Package project holds the editing session: an ordered list of catalog
// files plus optional title card settings. Every mutation rebuilds the
// timeline and pushes it to the preview sink, so playback always reflects
// the current arrangement.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/snapcut/snapcut-agent/internal/catalog"
	"github.com/snapcut/snapcut-agent/internal/timeline"
)

const (
	configKeyItems = "project.items"
	configKeyCover = "project.cover"
)

// Sink receives the rebuilt timeline after every project change.
type Sink interface {
	SetTimeline(tl timeline.Timeline)
}

// Item is one project entry joined with its catalog metadata.
type Item struct {
	FileID   string  `json:"file_id"`
	Filename string  `json:"filename"`
	Kind     string  `json:"kind"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

type Service struct {
	repo   catalog.Repository
	sink   Sink
	logger *slog.Logger

	mu      sync.Mutex
	itemIDs []string
	cover   timeline.Cover
	tl      timeline.Timeline
}

func NewService(repo catalog.Repository, sink Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sink:   sink,
		logger: logger,
		cover:  timeline.Cover{Duration: timeline.DefaultCoverDuration, ColorScheme: timeline.SchemeBlackOnWhite},
	}
}

// Load restores the persisted session. Items whose files have vanished from
// the catalog are dropped silently.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawItems, err := s.repo.GetConfig(ctx, configKeyItems)
	if err != nil {
		return fmt.Errorf("failed to load project items: %w", err)
	}
	if rawItems != "" {
		var ids []string
		if err := json.Unmarshal([]byte(rawItems), &ids); err != nil {
			s.logger.Warn("discarding corrupt project item list", "error", err)
		} else {
			s.itemIDs = s.filterExisting(ctx, ids)
		}
	}

	rawCover, err := s.repo.GetConfig(ctx, configKeyCover)
	if err != nil {
		return fmt.Errorf("failed to load cover settings: %w", err)
	}
	if rawCover != "" {
		var cover timeline.Cover
		if err := json.Unmarshal([]byte(rawCover), &cover); err != nil {
			s.logger.Warn("discarding corrupt cover settings", "error", err)
		} else {
			s.cover = normalizeCover(cover)
		}
	}

	return s.rebuildLocked(ctx)
}

func (s *Service) filterExisting(ctx context.Context, ids []string) []string {
	kept := ids[:0]
	for _, id := range ids {
		f, err := s.repo.GetFile(ctx, id)
		if err != nil || f == nil {
			s.logger.Warn("dropping project item: file missing from catalog", "file_id", id)
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

// AddItem appends a catalog file to the end of the project. The file must
// be probed with a positive duration; the timeline has no place for items
// of unknown length.
func (s *Service) AddItem(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("file not found: %s", fileID)
	}
	if !file.Probed {
		return fmt.Errorf("file %s has not been probed yet", file.Filename)
	}
	if file.Duration <= 0 {
		return fmt.Errorf("file %s has nonpositive duration", file.Filename)
	}

	s.itemIDs = append(s.itemIDs, fileID)
	return s.commitLocked(ctx)
}

func (s *Service) RemoveItem(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.itemIDs) {
		return fmt.Errorf("item index %d out of range", index)
	}
	s.itemIDs = append(s.itemIDs[:index], s.itemIDs[index+1:]...)
	return s.commitLocked(ctx)
}

func (s *Service) MoveItem(ctx context.Context, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.itemIDs)
	if from < 0 || from >= n {
		return fmt.Errorf("item index %d out of range", from)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("item index %d out of range", to)
	}
	if from == to {
		return nil
	}

	id := s.itemIDs[from]
	s.itemIDs = append(s.itemIDs[:from], s.itemIDs[from+1:]...)
	s.itemIDs = append(s.itemIDs[:to], append([]string{id}, s.itemIDs[to:]...)...)
	return s.commitLocked(ctx)
}

// SetItems replaces the whole arrangement. Every ID must name a probed
// catalog file; the session is left untouched on error.
func (s *Service) SetItems(ctx context.Context, fileIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range fileIDs {
		file, err := s.repo.GetFile(ctx, id)
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("file not found: %s", id)
		}
		if !file.Probed || file.Duration <= 0 {
			return fmt.Errorf("file %s is not ready for the timeline", file.Filename)
		}
	}

	s.itemIDs = append([]string(nil), fileIDs...)
	return s.commitLocked(ctx)
}

func (s *Service) SetCover(ctx context.Context, cover timeline.Cover) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cover = normalizeCover(cover)
	if cover.Enabled() && cover.Duration <= 0 {
		return fmt.Errorf("cover duration must be positive")
	}
	switch cover.ColorScheme {
	case timeline.SchemeBlackOnWhite, timeline.SchemeWhiteOnBlack:
	default:
		return fmt.Errorf("unknown color scheme %q", cover.ColorScheme)
	}

	s.cover = cover
	return s.commitLocked(ctx)
}

func (s *Service) Cover() timeline.Cover {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cover
}

// Items returns the arrangement joined with catalog metadata.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.itemIDs...)
	s.mu.Unlock()

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		f, err := s.repo.GetFile(ctx, id)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		items = append(items, Item{
			FileID:   f.ID,
			Filename: f.Filename,
			Kind:     f.Kind,
			Duration: f.Duration,
			Width:    f.Width,
			Height:   f.Height,
		})
	}
	return items, nil
}

func (s *Service) Timeline() timeline.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl
}

// commitLocked persists the session, rebuilds the timeline and pushes it to
// the sink. Persistence failures are returned but the in-memory state keeps
// the change; the next successful commit writes it through.
func (s *Service) commitLocked(ctx context.Context) error {
	if err := s.rebuildLocked(ctx); err != nil {
		return err
	}

	rawItems, _ := json.Marshal(s.itemIDs)
	if err := s.repo.SetConfig(ctx, configKeyItems, string(rawItems)); err != nil {
		return fmt.Errorf("failed to persist project items: %w", err)
	}
	rawCover, _ := json.Marshal(s.cover)
	if err := s.repo.SetConfig(ctx, configKeyCover, string(rawCover)); err != nil {
		return fmt.Errorf("failed to persist cover settings: %w", err)
	}
	return nil
}

func (s *Service) rebuildLocked(ctx context.Context) error {
	mediaItems := make([]timeline.MediaItem, 0, len(s.itemIDs))
	for _, id := range s.itemIDs {
		f, err := s.repo.GetFile(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return fmt.Errorf("file not found: %s", id)
		}
		mediaItems = append(mediaItems, timeline.MediaItem{
			ID:       f.ID,
			Kind:     timeline.MediaKind(f.Kind),
			Duration: f.Duration,
		})
	}

	tl, err := timeline.Build(mediaItems, s.cover)
	if err != nil {
		return fmt.Errorf("failed to build timeline: %w", err)
	}

	s.tl = tl
	if s.sink != nil {
		s.sink.SetTimeline(tl)
	}

	s.logger.Info("timeline rebuilt",
		"items", len(s.itemIDs), "segments", len(tl.Segments), "total", tl.Total)
	return nil
}

func normalizeCover(c timeline.Cover) timeline.Cover {
	if c.ColorScheme == "" {
		c.ColorScheme = timeline.SchemeBlackOnWhite
	}
	if c.Duration == 0 {
		c.Duration = timeline.DefaultCoverDuration
	}
	return c
}
