// FilePath: internal/session/tracker.go
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/aquasense/tdshub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Tracker maintains the per-device session state machine: each device
// collects exactly windowSize raw readings into a session, the Nth
// accepted reading transitions the session to analyzing with a computed
// average, and Complete seals it. Pure in-memory logic, no I/O.
type Tracker struct {
	mu         sync.Mutex
	sessions   map[string]*deviceSession
	windowSize int
	now        func() time.Time
}

type deviceSession struct {
	sessionID    string
	startedAt    time.Time
	readingCount int
	runningSum   float64
	status       models.SessionStatus
	average      *float64
	explanation  *string
	lastValue    float64
}

// AcceptResult reports the outcome of offering one reading to a session.
type AcceptResult struct {
	Accepted bool
	// CompletedWindow is true when this reading was the Nth and the
	// session just transitioned into analyzing.
	CompletedWindow bool
	View            models.SessionView
}

// NewTracker creates a tracker with the given session window size.
func NewTracker(windowSize int) *Tracker {
	return &Tracker{
		sessions:   make(map[string]*deviceSession),
		windowSize: windowSize,
		now:        time.Now,
	}
}

func (t *Tracker) newSession(deviceID string) *deviceSession {
	started := t.now().UTC()
	// Nanosecond epoch keeps ids distinct across rapid resets.
	return &deviceSession{
		sessionID: fmt.Sprintf("%s-%d", deviceID, started.UnixNano()),
		startedAt: started,
		status:    models.SessionCollecting,
	}
}

// EnsureSession returns the active session for a device, creating a
// fresh collecting session if the device has no tracked state.
func (t *Tracker) EnsureSession(deviceID string) models.SessionView {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[deviceID]
	if !ok {
		s = t.newSession(deviceID)
		t.sessions[deviceID] = s
		nuts.L.Debugf("[SessionTracker] New session %s for device %s", s.sessionID, deviceID)
	}
	return s.view(deviceID)
}

// AcceptReading offers one reading to the device's session. Readings are
// rejected without side effects unless the session is collecting. The
// Nth accepted reading computes the average and moves the session into
// analyzing as part of this call.
func (t *Tracker) AcceptReading(deviceID string, tdsPpm float64) AcceptResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[deviceID]
	if !ok {
		s = t.newSession(deviceID)
		t.sessions[deviceID] = s
	}

	if s.status != models.SessionCollecting {
		return AcceptResult{Accepted: false, View: s.view(deviceID)}
	}

	s.readingCount++
	s.runningSum += tdsPpm
	s.lastValue = tdsPpm

	completed := false
	if s.readingCount >= t.windowSize {
		avg := s.runningSum / float64(t.windowSize)
		s.average = &avg
		s.status = models.SessionAnalyzing
		completed = true
		nuts.L.Infof("[SessionTracker] Session %s window full (%d readings, avg %.2f ppm)",
			s.sessionID, s.readingCount, avg)
	}

	return AcceptResult{Accepted: true, CompletedWindow: completed, View: s.view(deviceID)}
}

// Retract undoes the most recent accepted reading so a failed store
// append cannot leave the in-memory counter ahead of durable state.
// Reverts analyzing back to collecting when the retracted reading was
// the one that filled the window.
func (t *Tracker) Retract(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[deviceID]
	if !ok || s.readingCount == 0 || s.status == models.SessionComplete {
		return
	}

	s.readingCount--
	s.runningSum -= s.lastValue
	if s.status == models.SessionAnalyzing {
		s.status = models.SessionCollecting
		s.average = nil
	}
}

// Complete seals an analyzing session with its explanation. A no-op for
// sessions in any other state.
func (t *Tracker) Complete(deviceID string, explanation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[deviceID]
	if !ok || s.status != models.SessionAnalyzing {
		return
	}
	s.status = models.SessionComplete
	s.explanation = &explanation
}

// Reset discards any in-progress counters and starts a fresh collecting
// session with a new session id. Already-persisted rows are unaffected.
func (t *Tracker) Reset(deviceID string) models.SessionView {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.newSession(deviceID)
	t.sessions[deviceID] = s
	nuts.L.Infof("[SessionTracker] Reset device %s to session %s", deviceID, s.sessionID)
	return s.view(deviceID)
}

// Snapshot returns a read-only view of the device's session. ok is
// false when the device has never been seen.
func (t *Tracker) Snapshot(deviceID string) (models.SessionView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[deviceID]
	if !ok {
		return models.SessionView{DeviceID: deviceID, Status: models.SessionIdle}, false
	}
	return s.view(deviceID), true
}

func (s *deviceSession) view(deviceID string) models.SessionView {
	v := models.SessionView{
		DeviceID:     deviceID,
		SessionID:    s.sessionID,
		StartedAt:    s.startedAt,
		ReadingCount: s.readingCount,
		Status:       s.status,
	}
	if s.average != nil {
		avg := *s.average
		v.AvgTDSPpm = &avg
	}
	if s.explanation != nil {
		expl := *s.explanation
		v.Explanation = &expl
	}
	return v
}
