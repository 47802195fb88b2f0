// FilePath: internal/models/models.session.go
package models

import "time"

// SessionStatus is the lifecycle state of a device's analysis session.
type SessionStatus string

const (
	SessionIdle       SessionStatus = "idle"
	SessionCollecting SessionStatus = "collecting"
	SessionAnalyzing  SessionStatus = "analyzing"
	SessionComplete   SessionStatus = "complete"
)

// SessionView is a read-only snapshot of a device's in-memory session
// state, served by the analysis status endpoint.
type SessionView struct {
	DeviceID     string        `json:"device_id"`
	SessionID    string        `json:"session_id,omitempty"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	ReadingCount int           `json:"reading_count"`
	Status       SessionStatus `json:"status"`
	AvgTDSPpm    *float64      `json:"avg_tds_ppm,omitempty"`
	Explanation  *string       `json:"explanation,omitempty"`
}

// AnalysisStatus combines the session snapshot with a device
// connectivity flag derived from the latest-reading cache.
type AnalysisStatus struct {
	SessionView
	Connected bool `json:"connected"`
}
