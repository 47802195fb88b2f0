// FilePath: api/middleware/api.middleware.apikey.go
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/aquasense/tdshub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware enforces the shared-secret header that devices must
// present on ingest and mutating analysis endpoints.
type APIKeyMiddleware struct {
	key string
}

func NewAPIKeyMiddleware(key string) *APIKeyMiddleware {
	return &APIKeyMiddleware{key: key}
}

// Require rejects requests whose X-API-Key header does not match the
// configured secret. No state is mutated on rejection.
func (m *APIKeyMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(apiKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(m.key)) != 1 {
			handleError(w, errors.NewAuthError("invalid or missing API key", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Warnf("[Auth] %s", err.Error())
}
