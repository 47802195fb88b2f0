package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Service records operational events (session completions, resets,
// enrichment fallbacks) with in-process counters.
type Service struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{counters: make(map[string]int64)}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now()

	s.mu.Lock()
	s.counters[eventName]++
	count := s.counters[eventName]
	s.mu.Unlock()

	nuts.L.Infof("[Monitoring] Event %s (#%d) recorded at %v with labels: %v",
		eventName, count, ts, labels)
}

// EventCounts returns a copy of the per-event counters.
func (s *Service) EventCounts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64, len(s.counters))
	for name, count := range s.counters {
		counts[name] = count
	}
	return counts
}
