package preview

import (
	"log/slog"
	"sync"

	"github.com/snapcut/snapcut-agent/internal/timeline"
)

// Simulator keeps one SimulatedBackend registered per video item on the
// current timeline. It sits between the project layer and the controller so
// a headless agent behaves as if a frontend had mounted a surface for every
// clip.
type Simulator struct {
	controller *Controller
	logger     *slog.Logger

	mu       sync.Mutex
	backends map[string]*SimulatedBackend
}

func NewSimulator(controller *Controller, logger *slog.Logger) *Simulator {
	return &Simulator{
		controller: controller,
		logger:     logger,
		backends:   make(map[string]*SimulatedBackend),
	}
}

// SetTimeline forwards the timeline to the controller, then reconciles the
// simulated backend set: one per video segment, torn down when the item
// leaves the timeline.
func (s *Simulator) SetTimeline(tl timeline.Timeline) {
	s.controller.SetTimeline(tl)

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]float64)
	for _, seg := range tl.Segments {
		if seg.HasBackend() {
			wanted[seg.MediaID] = seg.Duration()
		}
	}

	for id, b := range s.backends {
		if _, ok := wanted[id]; !ok {
			b.Pause()
			s.controller.DeregisterBackend(id)
			delete(s.backends, id)
		}
	}

	for id, duration := range wanted {
		if _, ok := s.backends[id]; ok {
			continue
		}
		b := NewSimulatedBackend(id, duration, s.controller, s.logger)
		s.backends[id] = b
		s.controller.RegisterBackend(id, b)
	}
}
