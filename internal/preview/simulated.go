package preview

import (
	"log/slog"
	"sync"
	"time"
)

// SimulatedBackend is a decoder stand-in for headless operation: it paces a
// playback position off the wall clock and feeds timeUpdate/ended
// notifications into an EventSink, exactly as a native video surface would.
// The real decoders live in the desktop frontend; this keeps the agent's
// preview loop fully functional without one.
type SimulatedBackend struct {
	mediaID  string
	duration float64
	sink     EventSink
	logger   *slog.Logger
	interval time.Duration

	mu        sync.Mutex
	playing   bool
	active    bool
	base      float64 // position when playback last started or sought
	startedAt time.Time
	stop      chan struct{}
}

// NewSimulatedBackend creates a simulated surface for one video item.
func NewSimulatedBackend(mediaID string, duration float64, sink EventSink, logger *slog.Logger) *SimulatedBackend {
	return &SimulatedBackend{
		mediaID:  mediaID,
		duration: duration,
		sink:     sink,
		logger:   logger,
		interval: 33 * time.Millisecond,
	}
}

func (b *SimulatedBackend) Play() error {
	b.mu.Lock()
	if b.playing {
		b.mu.Unlock()
		return nil
	}
	b.playing = true
	b.startedAt = time.Now()
	stop := make(chan struct{})
	b.stop = stop
	b.mu.Unlock()

	go b.run(stop)
	return nil
}

func (b *SimulatedBackend) run(stop chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			if !b.playing {
				b.mu.Unlock()
				return
			}
			pos := b.base + time.Since(b.startedAt).Seconds()
			ended := pos >= b.duration
			if ended {
				pos = b.duration
				b.base = pos
				b.playing = false
			}
			b.mu.Unlock()

			// Notify outside the lock: the sink takes its own mutex and
			// may call back into this backend.
			if ended {
				b.sink.HandleEnded(b.mediaID)
				return
			}
			b.sink.HandleTimeUpdate(b.mediaID, pos)
		}
	}
}

func (b *SimulatedBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.playing {
		return
	}
	b.base += time.Since(b.startedAt).Seconds()
	if b.base > b.duration {
		b.base = b.duration
	}
	b.playing = false
	if b.stop != nil {
		close(b.stop)
		b.stop = nil
	}
}

func (b *SimulatedBackend) Seek(localTime float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if localTime < 0 {
		localTime = 0
	}
	if localTime > b.duration {
		localTime = b.duration
	}
	b.base = localTime
	b.startedAt = time.Now()
}

func (b *SimulatedBackend) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = active
}

func (b *SimulatedBackend) Position() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.playing {
		return b.base
	}
	pos := b.base + time.Since(b.startedAt).Seconds()
	if pos > b.duration {
		pos = b.duration
	}
	return pos
}

func (b *SimulatedBackend) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.playing
}

// Active reports the visibility flag, for the status API.
func (b *SimulatedBackend) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

var _ Backend = (*SimulatedBackend)(nil)
