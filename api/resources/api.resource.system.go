// FilePath: api/resources/api.resource.system.go
package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"
)

// @Summary Health check
// @Description Liveness probe plus raw/analysis row counts
// @Tags system
// @Produce json
// @Success 200 {object} waterservice.HealthReport
// @Router /healthz [get]
func (h *ReadingHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	report, err := h.service.Health(r.Context())
	if err != nil {
		respondWithServiceError(w, requestID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Dashboard serves the embedded live view. It polls the open read
// endpoints; no API key required.
func (h *ReadingHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!doctype html>
<meta charset="utf-8">
<title>TDS Live</title>
<h2>TDS Live</h2>
<pre id="out">Loading...</pre>
<script>
async function refresh() {
  const r = await fetch('/api/latest');
  const j = await r.json();
  document.getElementById('out').textContent = JSON.stringify(j, null, 2);
}
setInterval(refresh, 3000); refresh();
</script>
`
