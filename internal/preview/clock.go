package preview

import (
	"sync"
	"time"
)

// Handle identifies one scheduled frame callback.
type Handle uint64

// FrameClock is the frame-synchronous tick source behind the synthetic
// segment timer. Every Schedule must be paired with exactly one Cancel on
// every exit path; the controller enforces that pairing.
type FrameClock interface {
	// Schedule registers a callback invoked once per frame until cancelled.
	Schedule(fn func(now time.Time)) Handle
	// Cancel deregisters a callback. Cancelling an unknown handle is a no-op.
	Cancel(h Handle)
}

// TickerClock is a FrameClock paced by a time.Ticker. The tick rate stands
// in for display refresh; 60 Hz is plenty for a preview scrubber.
type TickerClock struct {
	interval time.Duration

	mu    sync.Mutex
	last  Handle
	stops map[Handle]chan struct{}
}

// NewTickerClock creates a ticker-backed frame clock at the given rate in Hz.
func NewTickerClock(hz int) *TickerClock {
	if hz <= 0 {
		hz = 60
	}
	return &TickerClock{
		interval: time.Second / time.Duration(hz),
		stops:    make(map[Handle]chan struct{}),
	}
}

func (c *TickerClock) Schedule(fn func(now time.Time)) Handle {
	c.mu.Lock()
	c.last++
	h := c.last
	stop := make(chan struct{})
	c.stops[h] = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				fn(now)
			}
		}
	}()

	return h
}

func (c *TickerClock) Cancel(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stop, ok := c.stops[h]; ok {
		close(stop)
		delete(c.stops, h)
	}
}

var _ FrameClock = (*TickerClock)(nil)
