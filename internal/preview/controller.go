// Package preview owns the logical play-head for the editing timeline and
// keeps it synchronized with the registered playback backends and with the
// synthetic timer that paces cover and image segments.
//
// previewTime is the single source of truth for "where the timeline is".
// Every backend's position is a projection of it (backendTime = previewTime
// minus the owning segment's start). One mutex serializes every entry point
// — backend notifications, timer ticks, scrubs, and timeline rebuilds — so
// exactly one logical writer touches the shared state at a time. A scrub is
// applied synchronously and pauses playback, which also disables the
// clock-driven write paths; that is what lets it win over any in-flight tick.
package preview

import (
	"log/slog"
	"sync"
	"time"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

// State labels the controller's reconciliation mode.
type State string

const (
	// StateIdle means no segments exist; play and scrub requests are no-ops.
	StateIdle State = "idle"
	// StatePaused means segments exist and the play flag is off.
	StatePaused State = "paused"
	// StatePlayingMedia means the active video backend's decoder drives time.
	StatePlayingMedia State = "playing_media"
	// StatePlayingTimer means the synthetic frame timer drives time
	// (cover card and image segments have no decoder clock).
	StatePlayingTimer State = "playing_timer"
)

// Options carries the tuning constants. Both were observed to differ across
// frontend variants, so they are configuration, not hard-coded values.
type Options struct {
	// DriftTolerance is the minimum discrepancy, in seconds, between
	// logical time and a backend's reported position that triggers a
	// corrective seek during playback.
	DriftTolerance float64
	// UpdateThrottle is the minimum spacing between accepted timeUpdate
	// notifications. Decoders fire far more often than the UI needs.
	UpdateThrottle time.Duration
}

// DefaultOptions matches the single-reused-surface frontend variant.
func DefaultOptions() Options {
	return Options{
		DriftTolerance: 0.3,
		UpdateThrottle: 33 * time.Millisecond,
	}
}

// Snapshot is a point-in-time view of the controller state, safe to hand to
// renderers and the status API.
type Snapshot struct {
	State        State   `json:"state"`
	PreviewTime  float64 `json:"preview_time"`
	Duration     float64 `json:"duration"`
	Playing      bool    `json:"playing"`
	SegmentIndex int     `json:"segment_index"`
	// Blocked reports that the most recent play() attempt was rejected by
	// the platform. The play flag intentionally stays on regardless.
	Blocked bool `json:"playback_blocked"`
}

// Controller reconciles play/pause and seek state across all registered
// backends so that exactly one is active and matches the current segment,
// and advances to the next segment on natural completion.
type Controller struct {
	logger *slog.Logger
	clock  FrameClock
	opts   Options
	now    func() time.Time

	mu          sync.Mutex
	tl          timeline.Timeline
	previewTime float64
	playing     bool
	blocked     bool

	backends map[string]Backend

	// Synthetic timer state. tickGen guards against stale callbacks that
	// fire after cancellation; tickSeg detects segment change between
	// reconciliations.
	tickActive bool
	tickHandle Handle
	tickGen    uint64
	tickSeg    int
	tickOrigin float64
	tickWall   time.Time

	lastUpdate time.Time
}

// NewController creates a controller driven by the given frame clock.
func NewController(clock FrameClock, opts Options, logger *slog.Logger) *Controller {
	if opts.DriftTolerance <= 0 {
		opts.DriftTolerance = DefaultOptions().DriftTolerance
	}
	if opts.UpdateThrottle <= 0 {
		opts.UpdateThrottle = DefaultOptions().UpdateThrottle
	}
	return &Controller{
		logger:   logger,
		clock:    clock,
		opts:     opts,
		now:      time.Now,
		backends: make(map[string]Backend),
	}
}

// SetTimeline replaces the timeline. Logical time and play state persist
// across the rebuild unless the new timeline is shorter than the current
// play-head, which clamps. The current segment is re-derived from
// previewTime, so no manual reconciliation of removed or reordered media
// is needed.
func (c *Controller) SetTimeline(tl timeline.Timeline) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tl = tl
	if tl.Empty() {
		c.previewTime = 0
		c.playing = false
	} else if c.previewTime > tl.Total {
		c.previewTime = tl.Total
	}
	c.reconcileLocked()
}

// RegisterBackend adds a playback surface for a media item. The controller
// holds a non-owning reference until DeregisterBackend.
func (c *Controller) RegisterBackend(mediaID string, b Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backends[mediaID] = b
	c.reconcileLocked()
}

// DeregisterBackend removes a playback surface, independent of timeline
// recomputation.
func (c *Controller) DeregisterBackend(mediaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.backends, mediaID)
	c.reconcileLocked()
}

// SetPlaying sets the play flag. A no-op while the timeline is empty.
func (c *Controller) SetPlaying(playing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tl.Empty() {
		return
	}
	c.playing = playing
	c.reconcileLocked()
}

// Seek is the scrub path: it sets previewTime immediately, forces pause,
// and seeks the owning backend unconditionally — no drift tolerance, no
// throttle. The user expects the visible frame to change with no
// perceptible lag.
func (c *Controller) Seek(at float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tl.Empty() {
		return
	}

	at = c.tl.Clamp(at)
	c.previewTime = at
	c.playing = false

	if seg, ok := c.tl.SegmentAt(at); ok && seg.HasBackend() {
		if b := c.backends[seg.MediaID]; b != nil {
			b.Seek(at - seg.Start)
		}
	}
	c.reconcileLocked()
}

// HandleTimeUpdate ingests a decoder position report. Only the backend
// owning the current segment may move the play-head, only while playing,
// and no more often than the throttle interval allows.
func (c *Controller) HandleTimeUpdate(mediaID string, localTime float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return
	}
	seg, ok := c.tl.SegmentAt(c.previewTime)
	if !ok || !seg.HasBackend() || seg.MediaID != mediaID {
		return
	}

	now := c.now()
	if now.Sub(c.lastUpdate) < c.opts.UpdateThrottle {
		return
	}
	c.lastUpdate = now

	c.previewTime = c.tl.Clamp(seg.Start + localTime)
	c.reconcileLocked()
}

// HandleEnded ingests a decoder completion notification and advances to the
// next segment, or rewinds and pauses if the final segment just finished.
func (c *Controller) HandleEnded(mediaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return
	}
	seg, ok := c.tl.SegmentAt(c.previewTime)
	if !ok || seg.MediaID != mediaID {
		return
	}
	c.advanceLocked()
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:        c.stateLocked(),
		PreviewTime:  c.previewTime,
		Duration:     c.tl.Total,
		Playing:      c.playing,
		SegmentIndex: c.tl.Locate(c.previewTime),
		Blocked:      c.blocked,
	}
}

// PreviewTime returns the current logical time in seconds.
func (c *Controller) PreviewTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewTime
}

// IsPlaying returns the play flag.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Close cancels any scheduled timer callback.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.stopTickLocked()
}

func (c *Controller) stateLocked() State {
	if c.tl.Empty() {
		return StateIdle
	}
	if !c.playing {
		return StatePaused
	}
	if seg, ok := c.tl.SegmentAt(c.previewTime); ok && seg.HasBackend() {
		return StatePlayingMedia
	}
	return StatePlayingTimer
}

// advanceLocked moves the play-head to the next segment's start. With no
// next segment, playback stops and the play-head rewinds to zero.
func (c *Controller) advanceLocked() {
	idx := c.tl.Locate(c.previewTime)
	if idx < 0 {
		return
	}
	if idx+1 < len(c.tl.Segments) {
		c.previewTime = c.tl.Segments[idx+1].Start
	} else {
		c.previewTime = 0
		c.playing = false
	}
	c.reconcileLocked()
}

// reconcileLocked is invoked after every change to (previewTime, playing,
// timeline, backends). It enforces the single-active-backend invariant,
// corrects drift behind the tolerance, mirrors the play flag onto the
// active backend, and pairs timer registration with cancellation on every
// exit path: segment change, pause, rebuild, completion, Close.
func (c *Controller) reconcileLocked() {
	if c.tl.Empty() {
		c.stopTickLocked()
		for _, b := range c.backends {
			b.SetActive(false)
			if !b.Paused() {
				b.Pause()
			}
		}
		return
	}

	idx := c.tl.Locate(c.previewTime)
	seg := c.tl.Segments[idx]

	for id, b := range c.backends {
		owns := seg.HasBackend() && id == seg.MediaID
		if !owns {
			b.SetActive(false)
			if !b.Paused() {
				b.Pause()
			}
			continue
		}

		b.SetActive(true)

		// Drift correction, not continuous seeking: the decoder's own
		// pacing drives time between corrections.
		target := c.previewTime - seg.Start
		if diff := target - b.Position(); diff > c.opts.DriftTolerance || diff < -c.opts.DriftTolerance {
			b.Seek(target)
		}

		if c.playing && b.Paused() {
			if err := b.Play(); err != nil {
				// Best effort: the play flag stays on even though the
				// surface may visually remain paused.
				c.blocked = true
				if c.logger != nil {
					c.logger.Warn("playback start rejected", "media_id", id, "error", err)
				}
			} else {
				c.blocked = false
			}
		} else if !c.playing && !b.Paused() {
			b.Pause()
			c.blocked = false
		}
	}

	wantTick := c.playing && !seg.HasBackend()
	if wantTick {
		if !c.tickActive || c.tickSeg != idx {
			c.stopTickLocked()
			c.startTickLocked(idx)
		}
	} else {
		c.stopTickLocked()
	}
}

func (c *Controller) startTickLocked(segIdx int) {
	c.tickGen++
	gen := c.tickGen
	c.tickActive = true
	c.tickSeg = segIdx
	c.tickOrigin = c.previewTime
	c.tickWall = c.now()
	c.tickHandle = c.clock.Schedule(func(now time.Time) {
		c.onTick(gen, now)
	})
}

func (c *Controller) stopTickLocked() {
	if !c.tickActive {
		return
	}
	c.tickActive = false
	c.tickGen++ // invalidate callbacks already in flight
	c.clock.Cancel(c.tickHandle)
}

// onTick advances the synthetic timer: previewTime = origin + wall-clock
// delta since the timer started. It runs unthrottled because it is the only
// time source for its segment. Reaching the segment's end performs
// segment-advance instead of publishing an out-of-range time.
func (c *Controller) onTick(gen uint64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tickActive || gen != c.tickGen {
		return
	}
	if !c.playing {
		return
	}
	seg := c.tl.Segments[c.tickSeg]

	candidate := c.tickOrigin + now.Sub(c.tickWall).Seconds()
	if candidate >= seg.End {
		c.advanceLocked()
		return
	}
	c.previewTime = candidate
}

var _ EventSink = (*Controller)(nil)
