// FilePath: internal/waterservice/waterservice.go
package waterservice

import (
	"context"
	"sync"
	"time"

	"github.com/aquasense/tdshub/internal/cache"
	"github.com/aquasense/tdshub/internal/config"
	"github.com/aquasense/tdshub/internal/enrichment"
	"github.com/aquasense/tdshub/internal/models"
	"github.com/aquasense/tdshub/internal/repository"
	"github.com/aquasense/tdshub/internal/session"
	nuts "github.com/vaudience/go-nuts"
)

// WaterService owns the per-reading analysis pipeline and the read-side
// queries behind the dashboard endpoints.
type WaterService struct {
	Readings repository.ReadingRepository
	Analyses repository.AnalysisRepository
	Tracker  *session.Tracker
	Enricher enrichment.Explainer
	Latest   cache.LatestCache

	cfg    config.IngestConfig
	enrich config.EnrichmentConfig
	events *nuts.EventEmitter
	locks  deviceLocks
	now    func() time.Time
}

// New creates a new WaterService instance
func New(
	readings repository.ReadingRepository,
	analyses repository.AnalysisRepository,
	tracker *session.Tracker,
	enricher enrichment.Explainer,
	latest cache.LatestCache,
	ingestCfg config.IngestConfig,
	enrichCfg config.EnrichmentConfig,
) *WaterService {
	return &WaterService{
		Readings: readings,
		Analyses: analyses,
		Tracker:  tracker,
		Enricher: enricher,
		Latest:   latest,
		cfg:      ingestCfg,
		enrich:   enrichCfg,
		events:   nuts.NewEventEmitter(),
		locks:    deviceLocks{locks: make(map[string]*sync.Mutex)},
		now:      time.Now,
	}
}

// OnAnalysisEvent registers a callback for session lifecycle events
// ("analysis.completed", "session.reset").
func (s *WaterService) OnAnalysisEvent(event string, handler func(deviceID string)) {
	// The emitter invokes listeners via reflection and requires the
	// signature to match the emitted arguments exactly (one string);
	// a variadic listener would never be called.
	s.events.On(event, "analysis_handler", func(deviceID string) {
		handler(deviceID)
	})
}

// deviceLocks serializes the whole ingest pipeline per device so two
// concurrent ingests cannot both observe count N-1 and both complete
// the session. Cross-device ingests stay independent.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (d *deviceLocks) forDevice(deviceID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[deviceID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[deviceID] = l
	}
	return l
}

// StartAnalysis forces a fresh collecting session for the device,
// discarding any in-progress counters.
func (s *WaterService) StartAnalysis(deviceID string) models.SessionView {
	lock := s.locks.forDevice(deviceID)
	lock.Lock()
	defer lock.Unlock()

	view := s.Tracker.Reset(deviceID)
	s.events.Emit("session.reset", deviceID)
	return view
}

// ResetAnalysis is an alias of StartAnalysis kept for the dashboard's
// reset endpoint; both yield a fresh collecting session.
func (s *WaterService) ResetAnalysis(deviceID string) models.SessionView {
	return s.StartAnalysis(deviceID)
}

// AnalysisStatus reports the session snapshot plus a connectivity flag
// derived from the latest-reading cache.
func (s *WaterService) AnalysisStatus(ctx context.Context, deviceID string) models.AnalysisStatus {
	view, _ := s.Tracker.Snapshot(deviceID)

	connected := false
	if latest, ok, err := s.Latest.Get(ctx, deviceID); err == nil && ok {
		connected = s.now().UTC().Sub(latest.CapturedAt) <= s.cfg.OfflineAfter
	}

	return models.AnalysisStatus{SessionView: view, Connected: connected}
}

// LatestReadings lists the last observed reading per device.
func (s *WaterService) LatestReadings(ctx context.Context) ([]models.RawReading, error) {
	return s.Latest.All(ctx)
}

// LatestAveraged returns the most recent averaged reading for a device,
// or a zero-value record when none exists.
func (s *WaterService) LatestAveraged(ctx context.Context, deviceID string) (models.AveragedReading, error) {
	avg, err := s.Readings.LatestAveraged(ctx, deviceID)
	if err != nil {
		return models.AveragedReading{}, err
	}
	if avg == nil {
		return models.AveragedReading{DeviceID: deviceID}, nil
	}
	return *avg, nil
}

// HistoryAveraged returns averaged readings within the trailing window,
// ascending by time. hours <= 0 yields an empty sequence.
func (s *WaterService) HistoryAveraged(ctx context.Context, deviceID string, hours float64) ([]models.AveragedReading, error) {
	if hours <= 0 {
		return []models.AveragedReading{}, nil
	}
	since := s.now().UTC().Add(-time.Duration(hours * float64(time.Hour)))
	return s.Readings.HistoryAveraged(ctx, deviceID, since)
}

// RollingAverage exposes the continuous last-K mean over raw readings.
// This coexists with the session-windowed average on purpose; the two
// serve different endpoints.
func (s *WaterService) RollingAverage(ctx context.Context, deviceID string) (*float64, int, error) {
	return s.Readings.RollingAverage(ctx, deviceID, s.cfg.RollingWindow)
}

// AnalysisHistory lists analysis records newest first, optionally
// filtered by device.
func (s *WaterService) AnalysisHistory(ctx context.Context, deviceID string, limit int) ([]models.AnalysisRecord, error) {
	return s.Analyses.History(ctx, deviceID, limit)
}

// AnalysisDetail fetches a single analysis record by id.
func (s *WaterService) AnalysisDetail(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	return s.Analyses.ByID(ctx, id)
}

// HealthReport carries liveness info plus row counts.
type HealthReport struct {
	Status        string `json:"status"`
	RawReadings   int64  `json:"raw_readings"`
	AnalysisCount int64  `json:"analysis_count"`
}

// Health pings the store and reports row counts.
func (s *WaterService) Health(ctx context.Context) (HealthReport, error) {
	if err := s.Readings.Ping(ctx); err != nil {
		return HealthReport{Status: "degraded"}, err
	}
	rawCount, err := s.Readings.CountRaw(ctx)
	if err != nil {
		return HealthReport{Status: "degraded"}, err
	}
	analysisCount, err := s.Analyses.Count(ctx)
	if err != nil {
		return HealthReport{Status: "degraded"}, err
	}
	return HealthReport{Status: "ok", RawReadings: rawCount, AnalysisCount: analysisCount}, nil
}
