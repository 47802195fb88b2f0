// FilePath: api/resources/api.resource.ingest.go
package resources

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"

	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/waterservice"
	nuts "github.com/vaudience/go-nuts"
)

// IngestHandlers encapsulates the reading ingest endpoints
type IngestHandlers struct {
	service    *waterservice.WaterService
	enableMock bool
}

// IngestRequestBody is the typed ingest payload. tds is required;
// voltage and raw are optional sensor diagnostics passed through to
// storage unchanged.
type IngestRequestBody struct {
	DeviceID string   `json:"device_id"`
	TDS      *float64 `json:"tds"`
	Voltage  *float64 `json:"voltage,omitempty"`
	Raw      *float64 `json:"raw,omitempty"`
}

func (b *IngestRequestBody) validate() *errors.APIError {
	if b.DeviceID == "" {
		return errors.NewValidationError("device_id is required", nil)
	}
	if b.TDS == nil {
		return errors.NewValidationError("tds is required", nil)
	}
	if math.IsNaN(*b.TDS) || math.IsInf(*b.TDS, 0) || *b.TDS < 0 {
		return errors.NewValidationError("tds must be a non-negative finite number", nil)
	}
	return nil
}

// @Summary Ingest a TDS reading
// @Description Accept one raw reading from a device and run the analysis pipeline
// @Tags ingest
// @Accept json
// @Produce json
// @Param reading body IngestRequestBody true "Reading"
// @Success 200 {object} models.IngestResult
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /ingest [post]
func (h *IngestHandlers) IngestReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var body IngestRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := body.validate(); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	result, err := h.service.Ingest(r.Context(), waterservice.IngestRequest{
		DeviceID: body.DeviceID,
		TDSPpm:   *body.TDS,
		Voltage:  body.Voltage,
		Raw:      body.Raw,
	})
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Generate a mock reading
// @Description Push one randomized reading through the full pipeline; dev aid, disabled by default
// @Tags ingest
// @Produce json
// @Success 200 {object} models.IngestResult
// @Router /api/mock_reading [post]
func (h *IngestHandlers) MockReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if !h.enableMock {
		respondWithError(w, errors.NewNotFoundError("mock endpoint disabled", nil).WithRequestID(requestID))
		return
	}

	var body struct {
		DeviceID string `json:"device_id"`
	}
	// Body is optional for the mock endpoint.
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.DeviceID == "" {
		body.DeviceID = "mock-device"
	}

	tds := 150 + rand.Float64()*200
	voltage := 3.3 + (rand.Float64()-0.5)*0.4
	raw := math.Round(1024 * voltage / 5.0)

	result, err := h.service.Ingest(r.Context(), waterservice.IngestRequest{
		DeviceID: body.DeviceID,
		TDSPpm:   tds,
		Voltage:  &voltage,
		Raw:      &raw,
	})
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
