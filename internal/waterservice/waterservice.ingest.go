// FilePath: internal/waterservice/waterservice.ingest.go
package waterservice

import (
	"context"

	"github.com/aquasense/tdshub/internal/enrichment"
	"github.com/aquasense/tdshub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// IngestRequest is a validated reading handed to the pipeline.
type IngestRequest struct {
	DeviceID string
	TDSPpm   float64
	Voltage  *float64
	Raw      *float64
}

// Ingest runs the full analysis pipeline for one reading: session
// accounting, raw persistence, and, on the reading that fills the
// window, enrichment plus the analysis commit. The whole pipeline is
// serialized per device.
//
// Readings that arrive while a session is analyzing or complete do not
// count toward it but are still appended to the raw log, untagged, so
// the durable stream stays complete for audit.
func (s *WaterService) Ingest(ctx context.Context, req IngestRequest) (models.IngestResult, error) {
	lock := s.locks.forDevice(req.DeviceID)
	lock.Lock()
	defer lock.Unlock()

	capturedAt := s.now().UTC()
	reading := models.RawReading{
		DeviceID:      req.DeviceID,
		TDSPpm:        req.TDSPpm,
		Voltage:       req.Voltage,
		Raw:           req.Raw,
		CapturedAt:    capturedAt,
		CapturedEpoch: capturedAt.Unix(),
	}

	s.Tracker.EnsureSession(req.DeviceID)
	res := s.Tracker.AcceptReading(req.DeviceID, req.TDSPpm)

	if res.Accepted {
		reading.SessionID = res.View.SessionID
	}
	if err := s.Readings.AppendRaw(ctx, &reading); err != nil {
		if res.Accepted {
			// Keep the counter aligned with durable state.
			s.Tracker.Retract(req.DeviceID)
		}
		return models.IngestResult{}, err
	}

	view := res.View
	if res.CompletedWindow {
		completedView, err := s.commitAnalysis(ctx, req.DeviceID, res.View)
		if err != nil {
			return models.IngestResult{}, err
		}
		view = completedView
	}

	if err := s.Latest.Set(ctx, reading); err != nil {
		nuts.L.Warnf("[WaterService] Failed to cache latest reading for %s: %v", req.DeviceID, err)
	}

	return models.IngestResult{
		OK:           true,
		Accepted:     res.Accepted,
		ReadingCount: view.ReadingCount,
		AvgTDSPpm:    view.AvgTDSPpm,
		Status:       string(view.Status),
	}, nil
}

// commitAnalysis turns a just-filled window into a durable analysis
// record: enrichment (best effort), the analysis row, the averaged
// projection, then the in-memory completion. Called with the device
// lock held.
func (s *WaterService) commitAnalysis(ctx context.Context, deviceID string, view models.SessionView) (models.SessionView, error) {
	avg := *view.AvgTDSPpm

	enrichCtx, cancel := context.WithTimeout(ctx, s.enrich.Timeout)
	explanation, err := s.Enricher.Explain(enrichCtx, deviceID, avg, view.ReadingCount)
	cancel()
	if err != nil {
		nuts.L.Warnf("[WaterService] Enrichment failed for session %s: %v", view.SessionID, err)
		explanation = enrichment.FallbackExplanation(avg, err)
	}

	capturedAt := s.now().UTC()
	record := models.AnalysisRecord{
		DeviceID:      deviceID,
		AvgTDSPpm:     avg,
		Explanation:   explanation,
		ReadingCount:  view.ReadingCount,
		CapturedAt:    capturedAt,
		CapturedEpoch: capturedAt.Unix(),
		SessionID:     view.SessionID,
	}
	if err := s.Analyses.Append(ctx, &record); err != nil {
		// The session stays analyzing; only an explicit reset exits.
		return models.SessionView{}, err
	}

	projection := models.AveragedReading{
		DeviceID:      deviceID,
		AvgTDSPpm:     avg,
		WindowCount:   view.ReadingCount,
		CapturedAt:    capturedAt,
		CapturedEpoch: capturedAt.Unix(),
	}
	if err := s.Readings.AppendAveraged(ctx, &projection); err != nil {
		// The analysis row is the durable record; losing the
		// compatibility projection is not worth failing the ingest.
		nuts.L.Warnf("[WaterService] Failed to append averaged projection for %s: %v", deviceID, err)
	}

	s.Tracker.Complete(deviceID, explanation)
	s.events.Emit("analysis.completed", deviceID)

	completed, _ := s.Tracker.Snapshot(deviceID)
	return completed, nil
}
