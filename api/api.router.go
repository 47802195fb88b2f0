// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/aquasense/tdshub/api/middleware"
	"github.com/aquasense/tdshub/api/resources"
	"github.com/aquasense/tdshub/internal/waterservice"
	"github.com/gorilla/mux"
)

type RouterConfig struct {
	APIKey     string
	EnableMock bool
}

type Router struct {
	router    *mux.Router
	auth      *middleware.APIKeyMiddleware
	resources *resources.Resources
}

func NewRouter(svc *waterservice.WaterService, cfg RouterConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewAPIKeyMiddleware(cfg.APIKey),
		resources: resources.NewResources(svc, cfg.EnableMock),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Open routes: dashboard, health, read-side queries
	r.router.HandleFunc("/", r.resources.Readings.Dashboard).Methods(http.MethodGet)
	r.router.HandleFunc("/healthz", r.resources.Readings.Healthz).Methods(http.MethodGet)

	open := r.router.PathPrefix("/api").Subrouter()
	open.HandleFunc("/latest", r.resources.Readings.Latest).Methods(http.MethodGet)
	open.HandleFunc("/latest_avg", r.resources.Readings.LatestAveraged).Methods(http.MethodGet)
	open.HandleFunc("/history_avg", r.resources.Readings.HistoryAveraged).Methods(http.MethodGet)
	open.HandleFunc("/rolling_avg", r.resources.Readings.RollingAverage).Methods(http.MethodGet)
	open.HandleFunc("/analysis_status", r.resources.Analysis.AnalysisStatus).Methods(http.MethodGet)
	open.HandleFunc("/analysis_history", r.resources.Analysis.AnalysisHistory).Methods(http.MethodGet)
	open.HandleFunc("/analysis_detail/{id}", r.resources.Analysis.AnalysisDetail).Methods(http.MethodGet)

	// Protected routes: ingest and session control require the shared secret
	protected := r.router.PathPrefix("").Subrouter()
	protected.Use(r.auth.Require)
	protected.HandleFunc("/ingest", r.resources.Ingest.IngestReading).Methods(http.MethodPost)
	protected.HandleFunc("/api/start_analysis", r.resources.Analysis.StartAnalysis).Methods(http.MethodPost)
	protected.HandleFunc("/api/reset_analysis", r.resources.Analysis.ResetAnalysis).Methods(http.MethodPost)
	protected.HandleFunc("/api/mock_reading", r.resources.Ingest.MockReading).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
