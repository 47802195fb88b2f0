// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"net/http"

	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/waterservice"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ReadingHandlers encapsulates the read-side dashboard endpoints
type ReadingHandlers struct {
	service *waterservice.WaterService
}

// @Summary Latest reading per device
// @Description Last-seen raw reading for every known device (liveness cache)
// @Tags readings
// @Produce json
// @Success 200 {array} models.RawReading
// @Router /api/latest [get]
func (h *ReadingHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	readings, err := h.service.LatestReadings(r.Context())
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, readings)
}

type deviceQuery struct {
	DeviceID string `schema:"device_id"`
}

type historyQuery struct {
	DeviceID string  `schema:"device_id"`
	Hours    float64 `schema:"hours"`
}

// @Summary Latest averaged reading
// @Description Most recent averaged reading for a device; zero-value record when none exists
// @Tags readings
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} models.AveragedReading
// @Router /api/latest_avg [get]
func (h *ReadingHandlers) LatestAveraged(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q deviceQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil || q.DeviceID == "" {
		respondWithError(w, errors.NewValidationError("device_id is required", err).WithRequestID(requestID))
		return
	}

	avg, err := h.service.LatestAveraged(r.Context(), q.DeviceID)
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, avg)
}

// @Summary Averaged reading history
// @Description Averaged readings within the trailing hours window, ascending by time
// @Tags readings
// @Produce json
// @Param device_id query string true "Device ID"
// @Param hours query number false "Trailing window in hours (default 24)"
// @Success 200 {array} models.AveragedReading
// @Router /api/history_avg [get]
func (h *ReadingHandlers) HistoryAveraged(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	q := historyQuery{Hours: 24}
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil || q.DeviceID == "" {
		respondWithError(w, errors.NewValidationError("device_id is required", err).WithRequestID(requestID))
		return
	}

	history, err := h.service.HistoryAveraged(r.Context(), q.DeviceID, q.Hours)
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

// @Summary Live rolling average
// @Description Continuous mean over the most recent K raw readings, independent of sessions
// @Tags readings
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} map[string]any
// @Router /api/rolling_avg [get]
func (h *ReadingHandlers) RollingAverage(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q deviceQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil || q.DeviceID == "" {
		respondWithError(w, errors.NewValidationError("device_id is required", err).WithRequestID(requestID))
		return
	}

	avg, count, err := h.service.RollingAverage(r.Context(), q.DeviceID)
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"device_id":   q.DeviceID,
		"avg_tds_ppm": avg,
		"count":       count,
	})
}
