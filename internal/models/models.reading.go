// FilePath: internal/models/models.reading.go
package models

import "time"

// RawReading represents a single TDS measurement reported by a device.
// Rows are append-only; a reading is never mutated after insert.
type RawReading struct {
	ID            string    `json:"id" db:"id"`
	DeviceID      string    `json:"device_id" db:"device_id"`
	TDSPpm        float64   `json:"tds_ppm" db:"tds_ppm"`
	Voltage       *float64  `json:"voltage,omitempty" db:"voltage"`
	Raw           *float64  `json:"raw,omitempty" db:"raw"`
	CapturedAt    time.Time `json:"captured_at" db:"captured_at"`
	CapturedEpoch int64     `json:"captured_epoch" db:"captured_epoch"`
	// SessionID is empty when the reading was stored as raw telemetry only,
	// without counting toward any session.
	SessionID string `json:"session_id,omitempty" db:"session_id"`
}

// AveragedReading is a rolling-average snapshot over the most recent
// window_count raw readings of a device. It is written both as a
// compatibility projection when a session completes and served live via
// the rolling-average query.
type AveragedReading struct {
	ID            string    `json:"id" db:"id"`
	DeviceID      string    `json:"device_id" db:"device_id"`
	AvgTDSPpm     float64   `json:"avg_tds_ppm" db:"avg_tds_ppm"`
	WindowCount   int       `json:"window_count" db:"window_count"`
	CapturedAt    time.Time `json:"captured_at" db:"captured_at"`
	CapturedEpoch int64     `json:"captured_epoch" db:"captured_epoch"`
}

// AnalysisRecord is the durable result of one completed session: the
// session-windowed average plus its generated explanation. Exactly one
// record exists per session that reached completion.
type AnalysisRecord struct {
	ID            string    `json:"id" db:"id"`
	DeviceID      string    `json:"device_id" db:"device_id"`
	AvgTDSPpm     float64   `json:"avg_tds_ppm" db:"avg_tds_ppm"`
	Explanation   string    `json:"explanation" db:"explanation"`
	ReadingCount  int       `json:"reading_count" db:"reading_count"`
	CapturedAt    time.Time `json:"captured_at" db:"captured_at"`
	CapturedEpoch int64     `json:"captured_epoch" db:"captured_epoch"`
	SessionID     string    `json:"session_id" db:"session_id"`
}

// IngestResult is returned to the device after each ingest call.
type IngestResult struct {
	OK           bool     `json:"ok"`
	Accepted     bool     `json:"accepted"`
	ReadingCount int      `json:"reading_count"`
	AvgTDSPpm    *float64 `json:"avg_tds_ppm,omitempty"`
	Status       string   `json:"status"`
}
