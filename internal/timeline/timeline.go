// Package timeline maps an ordered collection of media items, plus an
// optional cover card, onto one contiguous logical timeline measured in
// seconds. Everything here is pure: a Timeline is a derived value that is
// rebuilt from its inputs, never mutated in place.
package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// MediaKind classifies a media item by its playback surface.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

// MediaItem is one entry in the ordered media list.
type MediaItem struct {
	ID       string    `json:"id"`
	Kind     MediaKind `json:"kind"`
	Duration float64   `json:"duration"` // seconds, must be > 0
}

// Cover color schemes, matching the export renderer.
const (
	SchemeBlackOnWhite = "blackOnWhite"
	SchemeWhiteOnBlack = "whiteOnBlack"
)

// DefaultCoverDuration is how long the title card holds when the user has
// not picked a duration.
const DefaultCoverDuration = 3.0

// Cover describes the optional generated title card.
type Cover struct {
	Text        string  `json:"text"`
	Duration    float64 `json:"duration"` // seconds
	ColorScheme string  `json:"color_scheme,omitempty"`
}

// Enabled reports whether the cover contributes a segment. A cover with
// only whitespace text is treated as absent.
func (c Cover) Enabled() bool {
	return strings.TrimSpace(c.Text) != ""
}

// SegmentKind distinguishes the cover card from media-owned spans.
type SegmentKind string

const (
	SegmentCover SegmentKind = "cover"
	SegmentMedia SegmentKind = "media"
)

// Segment is one contiguous span of the logical timeline. Bounds are
// half-open [Start, End), except that the final segment's End is inclusive
// for lookup purposes.
type Segment struct {
	Kind      SegmentKind `json:"kind"`
	Start     float64     `json:"start"`
	End       float64     `json:"end"`
	MediaID   string      `json:"media_id,omitempty"`
	MediaKind MediaKind   `json:"media_kind,omitempty"`
}

// Duration returns the width of the segment in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// HasBackend reports whether the segment is owned by a media item with a
// native playback surface. Cover and image segments have no decoder clock
// and are advanced by the synthetic timer instead.
func (s Segment) HasBackend() bool {
	return s.Kind == SegmentMedia && s.MediaKind == MediaVideo
}

// ErrNonPositiveDuration is returned by Build when an input duration is
// zero or negative. A zero-width segment would be unreachable under the
// half-open lookup convention, so the boundary rejects it outright.
var ErrNonPositiveDuration = errors.New("duration must be positive")

// Timeline is the ordered segment list plus its total duration.
type Timeline struct {
	Segments []Segment `json:"segments"`
	Total    float64   `json:"total"` // seconds; 0 if empty
}

// Build produces a contiguous timeline: the cover segment first when
// enabled, then one media segment per item in the given order, with no
// gaps. segments[i].End == segments[i+1].Start for every adjacent pair.
func Build(items []MediaItem, cover Cover) (Timeline, error) {
	segments := make([]Segment, 0, len(items)+1)
	cursor := 0.0

	if cover.Enabled() {
		if cover.Duration <= 0 {
			return Timeline{}, fmt.Errorf("cover: %w", ErrNonPositiveDuration)
		}
		segments = append(segments, Segment{
			Kind:  SegmentCover,
			Start: 0,
			End:   cover.Duration,
		})
		cursor = cover.Duration
	}

	for _, item := range items {
		if item.Duration <= 0 {
			return Timeline{}, fmt.Errorf("media %s: %w", item.ID, ErrNonPositiveDuration)
		}
		segments = append(segments, Segment{
			Kind:      SegmentMedia,
			Start:     cursor,
			End:       cursor + item.Duration,
			MediaID:   item.ID,
			MediaKind: item.Kind,
		})
		cursor += item.Duration
	}

	return Timeline{Segments: segments, Total: cursor}, nil
}

// Empty reports whether the timeline has no segments.
func (t Timeline) Empty() bool {
	return len(t.Segments) == 0
}

// Clamp constrains a time value to [0, Total].
func (t Timeline) Clamp(at float64) float64 {
	if at < 0 {
		return 0
	}
	if at > t.Total {
		return t.Total
	}
	return at
}

// Locate returns the index of the segment owning the given time, by binary
// search over the segment bounds. Negative times clamp to 0; times at or
// past the total duration clamp to the last index (a play-head that reaches
// the very end is still "on" the last segment until explicitly advanced).
// Returns -1 for an empty timeline.
func (t Timeline) Locate(at float64) int {
	n := len(t.Segments)
	if n == 0 {
		return -1
	}
	if at < 0 {
		at = 0
	}
	if at >= t.Total {
		return n - 1
	}

	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		s := t.Segments[mid]
		switch {
		case at < s.Start:
			hi = mid - 1
		case at >= s.End:
			lo = mid + 1
		default:
			return mid
		}
	}
	return lo
}

// SegmentAt returns the segment owning the given time.
func (t Timeline) SegmentAt(at float64) (Segment, bool) {
	idx := t.Locate(at)
	if idx < 0 {
		return Segment{}, false
	}
	return t.Segments[idx], true
}
