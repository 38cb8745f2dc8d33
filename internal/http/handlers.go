package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/solar-forecast-service/internal/aggregation"
	"github.com/kjstillabower/solar-forecast-service/internal/degraded"
	"github.com/kjstillabower/solar-forecast-service/internal/lifecycle"
	"github.com/kjstillabower/solar-forecast-service/internal/models"
	"github.com/kjstillabower/solar-forecast-service/internal/observability"
	"github.com/kjstillabower/solar-forecast-service/internal/service"
	"github.com/kjstillabower/solar-forecast-service/internal/traffic"
	"github.com/kjstillabower/solar-forecast-service/internal/validation"
)

const (
	msgCoordinatesRequired = "Both latitude and longitude are required"
	msgInvalidCoordinates  = "Invalid latitude or longitude"
	msgDataUnavailable     = "Weather data is unavailable"
	msgFetchFailed         = "Failed to fetch weather data"
	msgInternalError       = "Internal server error"
)

const (
	viewForecast = "forecast"
	viewSummary  = "summary"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// BreakerOpen, when set, reports whether the upstream circuit breaker is open.
	BreakerOpen func() bool
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService   *service.WeatherService
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(weatherService *service.WeatherService, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		weatherService: weatherService,
		healthConfig:   healthConfig,
		logger:         logger,
	}
}

// GetForecast handles GET /forecast?latitude=&longitude=.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinates(w, r, viewForecast)
	if !ok {
		return
	}
	days, err := h.weatherService.Forecast(r.Context(), coord)
	if err != nil {
		h.writeServiceError(w, r, viewForecast, err)
		return
	}
	h.recordSuccess(viewForecast)
	writeData(w, r, http.StatusOK, days)
}

// GetSummary handles GET /summary?latitude=&longitude=.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinates(w, r, viewSummary)
	if !ok {
		return
	}
	summary, err := h.weatherService.Summary(r.Context(), coord)
	if err != nil {
		h.writeServiceError(w, r, viewSummary, err)
		return
	}
	h.recordSuccess(viewSummary)
	writeData(w, r, http.StatusOK, summary)
}

// coordinates validates the query and writes a 400 on failure.
func (h *Handler) coordinates(w http.ResponseWriter, r *http.Request, view string) (models.Coordinate, bool) {
	q := r.URL.Query()
	coord, err := validation.ValidateCoordinates(q.Get("latitude"), q.Get("longitude"))
	if err == nil {
		return coord, true
	}
	observability.ViewRequestsTotal.WithLabelValues(view, "invalid").Inc()
	observability.LoggerFromContext(r.Context(), h.logger).Debug("invalid coordinates", zap.Error(err))
	msg := msgInvalidCoordinates
	if errors.Is(err, validation.ErrCoordinatesRequired) {
		msg = msgCoordinatesRequired
	}
	writeError(w, r, http.StatusBadRequest, msg)
	return models.Coordinate{}, false
}

func (h *Handler) recordSuccess(view string) {
	traffic.RecordSuccess()
	observability.ViewRequestsTotal.WithLabelValues(view, "success").Inc()
}

// writeServiceError maps service errors: missing data is 404, anything else 500.
// Failed reductions get the generic message since the fetch itself succeeded.
// Only 500s count toward the degraded error rate.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, view string, err error) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)
	if errors.Is(err, aggregation.ErrDataUnavailable) {
		traffic.RecordSuccess()
		observability.ViewRequestsTotal.WithLabelValues(view, "unavailable").Inc()
		logger.Info("weather data unavailable", zap.String("view", view), zap.Error(err))
		writeError(w, r, http.StatusNotFound, msgDataUnavailable)
		return
	}

	traffic.RecordError()
	observability.ViewRequestsTotal.WithLabelValues(view, "error").Inc()
	logger.Error("weather request failed", zap.String("view", view), zap.Error(err))
	if h.healthConfig != nil && degraded.IsDegraded(h.healthConfig.DegradedWindow, h.healthConfig.DegradedErrorPct) {
		degraded.NotifyDegraded()
	}
	msg := msgFetchFailed
	if errors.Is(err, aggregation.ErrAggregation) {
		msg = msgInternalError
	}
	writeError(w, r, http.StatusInternalServerError, msg)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy"}
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.BreakerOpen != nil {
		checks["circuitBreaker"] = "closed"
		if h.healthConfig.BreakerOpen() {
			checks["circuitBreaker"] = "open"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "solar-forecast-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeResponse(w, r, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	cfg := h.healthConfig

	if cfg.RateLimitRPS > 0 && cfg.OverloadWindow > 0 {
		threshold := float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds() * float64(cfg.OverloadThresholdPct) / 100
		if float64(traffic.RequestCount(cfg.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	if cfg.BreakerOpen != nil && cfg.BreakerOpen() {
		return healthResult{"degraded", http.StatusServiceUnavailable, "circuit_open"}
	}
	if degraded.IsDegraded(cfg.DegradedWindow, cfg.DegradedErrorPct) {
		return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}
