package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/solar-forecast-service/internal/observability"
)

// NewRouter wires the API routes. Forecast and summary are also served under the
// legacy /api/endpoint1 and /api/endpoint2 paths; those routes are rate limited and
// bounded by requestTimeout. Panics below the metrics middleware become 500s, so
// they are still counted.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(RecoverMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(RateLimitMiddleware(limiter))
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/forecast", h.GetForecast).Methods(http.MethodGet)
	api.HandleFunc("/api/endpoint1", h.GetForecast).Methods(http.MethodGet)
	api.HandleFunc("/summary", h.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/api/endpoint2", h.GetSummary).Methods(http.MethodGet)
	return router
}
