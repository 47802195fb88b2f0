package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquasense/tdshub/internal/cache"
	"github.com/aquasense/tdshub/internal/config"
	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/models"
	"github.com/aquasense/tdshub/internal/session"
	"github.com/aquasense/tdshub/internal/waterservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-secret"

// memReadings is a minimal in-memory ReadingRepository for HTTP tests.
type memReadings struct {
	raws []models.RawReading
	avgs []models.AveragedReading
}

func (m *memReadings) AppendRaw(_ context.Context, r *models.RawReading) error {
	if r.ID == "" {
		r.ID = fmt.Sprintf("rr-%d", len(m.raws)+1)
	}
	m.raws = append(m.raws, *r)
	return nil
}

func (m *memReadings) RollingAverage(_ context.Context, deviceID string, k int) (*float64, int, error) {
	var sum float64
	var count int
	for i := len(m.raws) - 1; i >= 0 && count < k; i-- {
		if m.raws[i].DeviceID == deviceID {
			sum += m.raws[i].TDSPpm
			count++
		}
	}
	if count == 0 {
		return nil, 0, nil
	}
	avg := sum / float64(count)
	return &avg, count, nil
}

func (m *memReadings) AppendAveraged(_ context.Context, avg *models.AveragedReading) error {
	m.avgs = append(m.avgs, *avg)
	return nil
}

func (m *memReadings) LatestAveraged(_ context.Context, deviceID string) (*models.AveragedReading, error) {
	for i := len(m.avgs) - 1; i >= 0; i-- {
		if m.avgs[i].DeviceID == deviceID {
			avg := m.avgs[i]
			return &avg, nil
		}
	}
	return nil, nil
}

func (m *memReadings) HistoryAveraged(_ context.Context, deviceID string, since time.Time) ([]models.AveragedReading, error) {
	rows := []models.AveragedReading{}
	for _, avg := range m.avgs {
		if avg.DeviceID == deviceID && !avg.CapturedAt.Before(since) {
			rows = append(rows, avg)
		}
	}
	return rows, nil
}

func (m *memReadings) CountRaw(_ context.Context) (int64, error) { return int64(len(m.raws)), nil }
func (m *memReadings) Ping(_ context.Context) error              { return nil }

// memAnalyses is a minimal in-memory AnalysisRepository.
type memAnalyses struct {
	records []models.AnalysisRecord
}

func (m *memAnalyses) Append(_ context.Context, r *models.AnalysisRecord) error {
	if r.ID == "" {
		r.ID = fmt.Sprintf("an-%d", len(m.records)+1)
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *memAnalyses) History(_ context.Context, deviceID string, limit int) ([]models.AnalysisRecord, error) {
	rows := []models.AnalysisRecord{}
	for i := len(m.records) - 1; i >= 0 && len(rows) < limit; i-- {
		if deviceID == "" || m.records[i].DeviceID == deviceID {
			rows = append(rows, m.records[i])
		}
	}
	return rows, nil
}

func (m *memAnalyses) ByID(_ context.Context, id string) (*models.AnalysisRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			record := r
			return &record, nil
		}
	}
	return nil, errors.NewNotFoundError("analysis record not found", nil)
}

func (m *memAnalyses) Count(_ context.Context) (int64, error) { return int64(len(m.records)), nil }

type staticExplainer struct{}

func (staticExplainer) Explain(_ context.Context, _ string, avg float64, _ int) (string, error) {
	return fmt.Sprintf("Average of %.1f ppm is within drinking range.", avg), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := waterservice.New(
		&memReadings{}, &memAnalyses{},
		session.NewTracker(10),
		staticExplainer{},
		cache.NewMemoryCache(),
		config.IngestConfig{SessionSize: 10, RollingWindow: 10, OfflineAfter: 30 * time.Second},
		config.EnrichmentConfig{Timeout: time.Second},
	)
	router := NewRouter(svc, RouterConfig{APIKey: testAPIKey, EnableMock: false})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postIngest(t *testing.T, server *httptest.Server, key string, payload map[string]any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/ingest", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeIngest(t *testing.T, resp *http.Response) models.IngestResult {
	t.Helper()
	defer resp.Body.Close()
	var result models.IngestResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestIngestEndpoint_RejectsMissingKey(t *testing.T) {
	server := newTestServer(t)

	resp := postIngest(t, server, "", map[string]any{"device_id": "device-1", "tds": 200.0})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestEndpoint_RejectsMissingTDS(t *testing.T) {
	server := newTestServer(t)

	resp := postIngest(t, server, testAPIKey, map[string]any{"device_id": "device-1"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestEndpoint_RejectsNegativeTDS(t *testing.T) {
	server := newTestServer(t)

	resp := postIngest(t, server, testAPIKey, map[string]any{"device_id": "device-1", "tds": -5.0})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestEndpoint_FullSessionOverHTTP(t *testing.T) {
	server := newTestServer(t)

	var result models.IngestResult
	for i := 0; i < 10; i++ {
		resp := postIngest(t, server, testAPIKey, map[string]any{"device_id": "device-1", "tds": 200.0})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result = decodeIngest(t, resp)
	}

	assert.True(t, result.Accepted)
	assert.Equal(t, 10, result.ReadingCount)
	require.NotNil(t, result.AvgTDSPpm)
	assert.InDelta(t, 200.0, *result.AvgTDSPpm, 1e-9)
	assert.Equal(t, "complete", result.Status)

	// Status endpoint reflects completion and connectivity.
	statusResp, err := http.Get(server.URL + "/api/analysis_status?device_id=device-1")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status models.AnalysisStatus
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	assert.Equal(t, models.SessionComplete, status.Status)
	assert.True(t, status.Connected)

	// History lists the single completed analysis.
	histResp, err := http.Get(server.URL + "/api/analysis_history?device_id=device-1")
	require.NoError(t, err)
	defer histResp.Body.Close()
	var records []models.AnalysisRecord
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Explanation, "200.0")

	// Detail endpoint round-trips by id.
	detailResp, err := http.Get(server.URL + "/api/analysis_detail/" + records[0].ID)
	require.NoError(t, err)
	defer detailResp.Body.Close()
	assert.Equal(t, http.StatusOK, detailResp.StatusCode)
}

func TestAnalysisDetailEndpoint_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/analysis_detail/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResetEndpoint_RequiresKey(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/reset_analysis", "application/json",
		bytes.NewReader([]byte(`{"device_id":"device-1"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMockEndpoint_DisabledReturns404(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/mock_reading", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatestAvgEndpoint_ZeroValueWhenNone(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/latest_avg?device_id=device-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var avg models.AveragedReading
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&avg))
	assert.Equal(t, "device-1", avg.DeviceID)
	assert.Zero(t, avg.AvgTDSPpm)
}

func TestHealthzEndpoint_ReportsCounts(t *testing.T) {
	server := newTestServer(t)
	for i := 0; i < 3; i++ {
		resp := postIngest(t, server, testAPIKey, map[string]any{"device_id": "device-1", "tds": 180.0})
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report waterservice.HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, int64(3), report.RawReadings)
	assert.Equal(t, int64(0), report.AnalysisCount)
}
