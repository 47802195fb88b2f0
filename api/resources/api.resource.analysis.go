// FilePath: api/resources/api.resource.analysis.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/waterservice"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// AnalysisHandlers encapsulates the session-analysis endpoints
type AnalysisHandlers struct {
	service *waterservice.WaterService
}

type analysisControlBody struct {
	DeviceID string `json:"device_id"`
}

func decodeControlBody(r *http.Request) (analysisControlBody, *errors.APIError) {
	var body analysisControlBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, errors.NewValidationError("invalid request body", err)
	}
	if body.DeviceID == "" {
		return body, errors.NewValidationError("device_id is required", nil)
	}
	return body, nil
}

// @Summary Start a fresh analysis session
// @Description Force-reset the device to a new collecting session
// @Tags analysis
// @Accept json
// @Produce json
// @Param body body analysisControlBody true "Device"
// @Success 200 {object} models.SessionView
// @Failure 400 {object} errors.APIError
// @Router /api/start_analysis [post]
func (h *AnalysisHandlers) StartAnalysis(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	body, apiErr := decodeControlBody(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	view := h.service.StartAnalysis(body.DeviceID)
	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Reset the analysis session
// @Description Discard in-progress counters and start a fresh collecting session
// @Tags analysis
// @Accept json
// @Produce json
// @Param body body analysisControlBody true "Device"
// @Success 200 {object} models.SessionView
// @Failure 400 {object} errors.APIError
// @Router /api/reset_analysis [post]
func (h *AnalysisHandlers) ResetAnalysis(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	body, apiErr := decodeControlBody(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	view := h.service.ResetAnalysis(body.DeviceID)
	respondWithJSON(w, http.StatusOK, view)
}

// @Summary Current session status
// @Description Session snapshot plus a connectivity flag for the device
// @Tags analysis
// @Produce json
// @Param device_id query string true "Device ID"
// @Success 200 {object} models.AnalysisStatus
// @Router /api/analysis_status [get]
func (h *AnalysisHandlers) AnalysisStatus(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q deviceQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil || q.DeviceID == "" {
		respondWithError(w, errors.NewValidationError("device_id is required", err).WithRequestID(requestID))
		return
	}

	status := h.service.AnalysisStatus(r.Context(), q.DeviceID)
	respondWithJSON(w, http.StatusOK, status)
}

type analysisHistoryQuery struct {
	DeviceID string `schema:"device_id"`
	Limit    int    `schema:"limit"`
}

// @Summary Analysis history
// @Description Completed-session analysis records, newest first, optionally filtered by device
// @Tags analysis
// @Produce json
// @Param device_id query string false "Device ID"
// @Param limit query int false "Max records (default 20, cap 200)"
// @Success 200 {array} models.AnalysisRecord
// @Router /api/analysis_history [get]
func (h *AnalysisHandlers) AnalysisHistory(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	q := analysisHistoryQuery{Limit: defaultHistoryLimit}
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if q.Limit <= 0 {
		q.Limit = defaultHistoryLimit
	}
	if q.Limit > maxHistoryLimit {
		q.Limit = maxHistoryLimit
	}

	records, err := h.service.AnalysisHistory(r.Context(), q.DeviceID, q.Limit)
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// @Summary Analysis detail
// @Description Fetch a single analysis record by id
// @Tags analysis
// @Produce json
// @Param id path string true "Analysis record ID"
// @Success 200 {object} models.AnalysisRecord
// @Failure 404 {object} errors.APIError
// @Router /api/analysis_detail/{id} [get]
func (h *AnalysisHandlers) AnalysisDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	record, err := h.service.AnalysisDetail(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}
