// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/aquasense/tdshub/internal/errors"
	"github.com/aquasense/tdshub/internal/waterservice"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Ingest   *IngestHandlers
	Readings *ReadingHandlers
	Analysis *AnalysisHandlers
}

// NewResources creates a new Resources instance
func NewResources(svc *waterservice.WaterService, enableMock bool) *Resources {
	return &Resources{
		Ingest:   &IngestHandlers{service: svc, enableMock: enableMock},
		Readings: &ReadingHandlers{service: svc},
		Analysis: &AnalysisHandlers{service: svc},
	}
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondWithServiceError maps service-layer errors onto their HTTP
// shape, defaulting to an internal error for anything untyped.
func respondWithServiceError(w http.ResponseWriter, requestID string, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	respondWithError(w, errors.NewInternalError("unexpected error", err).WithRequestID(requestID))
}
