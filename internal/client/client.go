package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
	"github.com/kjstillabower/solar-forecast-service/internal/observability"
)

// SeriesFetcher retrieves the raw provider series the aggregation core consumes.
type SeriesFetcher interface {
	FetchForecastSeries(ctx context.Context, coord models.Coordinate) (models.ForecastSeries, error)
	FetchSummarySeries(ctx context.Context, coord models.Coordinate) (models.SummarySeries, error)
	Ping(ctx context.Context) error
}

var (
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
	ErrBadRequest      = errors.New("upstream rejected request")
	ErrCircuitOpen     = errors.New("circuit breaker open")
)

// BreakerName labels the upstream circuit breaker in metrics and logs.
const BreakerName = "weather_api"

const (
	defaultTimezone       = "GMT"
	defaultHourlyInterval = 3600
	defaultDailyInterval  = 86400
	pingTimeout           = 5 * time.Second
)

// Variable order is fixed; series are bound by name, never by position.
var (
	forecastHourlyVars = []string{"temperature_2m", "weather_code"}
	forecastDailyVars  = []string{"daylight_duration"}
	summaryHourlyVars  = []string{
		"temperature_2m", "relative_humidity_2m", "precipitation_probability",
		"precipitation", "rain", "snowfall", "surface_pressure",
	}
	summaryDailyVars = []string{"sunshine_duration"}
)

// Config configures an OpenMeteoClient.
type Config struct {
	URL            string
	Timezone       string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Breaker        BreakerConfig
}

// BreakerConfig configures the upstream circuit breaker. Disabled when Enabled is false.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold uint32
	Timeout          time.Duration
	MaxHalfOpen      uint32
}

// OpenMeteoClient fetches hourly and daily series from the Open-Meteo forecast API.
type OpenMeteoClient struct {
	apiURL         *url.URL
	timezone       string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient validates cfg and returns a client with retry and breaker defaults applied.
func NewOpenMeteoClient(cfg Config) (*OpenMeteoClient, error) {
	apiURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather API URL: %w", err)
	}
	if apiURL.Scheme == "" || apiURL.Host == "" {
		return nil, fmt.Errorf("invalid weather API URL %q: scheme and host required", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("weather API timeout must be positive, got %v", cfg.Timeout)
	}

	c := &OpenMeteoClient{
		apiURL:         apiURL,
		timezone:       cfg.Timezone,
		timeout:        cfg.Timeout,
		retryAttempts:  cfg.RetryAttempts,
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxDelay:  cfg.RetryMaxDelay,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: newBreaker(cfg.Breaker),
	}
	if c.timezone == "" {
		c.timezone = defaultTimezone
	}
	if c.retryAttempts < 1 {
		c.retryAttempts = 1
	}
	if c.retryBaseDelay <= 0 {
		c.retryBaseDelay = 100 * time.Millisecond
	}
	if c.retryMaxDelay < c.retryBaseDelay {
		c.retryMaxDelay = c.retryBaseDelay
	}
	return c, nil
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	observability.SetCircuitBreakerState(BreakerName, stateValue(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: cfg.MaxHalfOpen,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Rejected queries and caller cancellations say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrBadRequest) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.RecordCircuitBreakerTransition(name, from.String(), to.String())
			observability.SetCircuitBreakerState(name, stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// BreakerOpen reports whether the circuit breaker is currently rejecting calls.
func (c *OpenMeteoClient) BreakerOpen() bool {
	return c.breaker != nil && c.breaker.State() == gobreaker.StateOpen
}

// openMeteoResponse holds the blocks of a forecast response. Samples are pointers so JSON null survives decoding.
type openMeteoResponse struct {
	UTCOffsetSeconds int64 `json:"utc_offset_seconds"`
	Hourly           block `json:"hourly"`
	Daily            block `json:"daily"`
}

type block map[string][]*float64

// series returns the named variable with nulls as NaN, or nil when the provider omitted it.
func (b block) series(name string) []float64 {
	raw, ok := b[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

// meta derives series metadata from the time axis. A missing or empty axis yields an empty series.
func (b block) meta(defaultInterval, offset int64) models.RawSeries {
	times := b["time"]
	if len(times) == 0 || times[0] == nil {
		return models.RawSeries{UTCOffsetSeconds: offset}
	}
	start := int64(*times[0])
	interval := int64(defaultInterval)
	if len(times) > 1 && times[1] != nil {
		if step := int64(*times[1]) - start; step > 0 {
			interval = step
		}
	}
	return models.RawSeries{
		StartEpoch:       start,
		EndEpoch:         start + int64(len(times))*interval,
		IntervalSeconds:  interval,
		UTCOffsetSeconds: offset,
	}
}

// FetchForecastSeries fetches hourly temperature and weather code plus daily daylight duration.
func (c *OpenMeteoClient) FetchForecastSeries(ctx context.Context, coord models.Coordinate) (models.ForecastSeries, error) {
	resp, err := c.fetch(ctx, coord, forecastHourlyVars, forecastDailyVars)
	if err != nil {
		return models.ForecastSeries{}, err
	}

	var out models.ForecastSeries
	if resp.Hourly != nil {
		out.Hourly = &models.ForecastHourly{
			RawSeries:   resp.Hourly.meta(defaultHourlyInterval, resp.UTCOffsetSeconds),
			Temperature: resp.Hourly.series("temperature_2m"),
			WeatherCode: resp.Hourly.series("weather_code"),
		}
	}
	if resp.Daily != nil {
		out.Daily = &models.ForecastDaily{
			RawSeries:        resp.Daily.meta(defaultDailyInterval, resp.UTCOffsetSeconds),
			DaylightDuration: resp.Daily.series("daylight_duration"),
		}
	}
	return out, nil
}

// FetchSummarySeries fetches the hourly atmospheric variables plus daily sunshine duration.
func (c *OpenMeteoClient) FetchSummarySeries(ctx context.Context, coord models.Coordinate) (models.SummarySeries, error) {
	resp, err := c.fetch(ctx, coord, summaryHourlyVars, summaryDailyVars)
	if err != nil {
		return models.SummarySeries{}, err
	}

	var out models.SummarySeries
	if resp.Hourly != nil {
		h := resp.Hourly
		out.Hourly = &models.SummaryHourly{
			RawSeries:                h.meta(defaultHourlyInterval, resp.UTCOffsetSeconds),
			Temperature:              h.series("temperature_2m"),
			RelativeHumidity:         h.series("relative_humidity_2m"),
			PrecipitationProbability: h.series("precipitation_probability"),
			Precipitation:            h.series("precipitation"),
			Rain:                     h.series("rain"),
			Snowfall:                 h.series("snowfall"),
			SurfacePressure:          h.series("surface_pressure"),
		}
	}
	if resp.Daily != nil {
		out.Daily = &models.SummaryDaily{
			RawSeries:        resp.Daily.meta(defaultDailyInterval, resp.UTCOffsetSeconds),
			SunshineDuration: resp.Daily.series("sunshine_duration"),
		}
	}
	return out, nil
}

func (c *OpenMeteoClient) fetch(ctx context.Context, coord models.Coordinate, hourly, daily []string) (openMeteoResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return openMeteoResponse{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.execute(func() (openMeteoResponse, error) {
			return c.callAPI(ctx, coord, hourly, daily)
		})
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !c.isRetryable(ctx, err) {
			observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
			return openMeteoResponse{}, err
		}
	}

	observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(lastErr))).Inc()
	return openMeteoResponse{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

// execute runs one attempt through the circuit breaker when one is configured.
func (c *OpenMeteoClient) execute(call func() (openMeteoResponse, error)) (openMeteoResponse, error) {
	if c.breaker == nil {
		return call()
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return openMeteoResponse{}, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return openMeteoResponse{}, err
	}
	return result.(openMeteoResponse), nil
}

func (c *OpenMeteoClient) callAPI(ctx context.Context, coord models.Coordinate, hourly, daily []string) (openMeteoResponse, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, coord, hourly, daily)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return openMeteoResponse{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) {
			return openMeteoResponse{}, fmt.Errorf("request timeout: %w", err)
		}
		return openMeteoResponse{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return openMeteoResponse{}, fmt.Errorf("read response body: %w", err)
	}

	if err := handleErrorResponse(resp.StatusCode, body); err != nil {
		return openMeteoResponse{}, err
	}

	var apiResp openMeteoResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return openMeteoResponse{}, fmt.Errorf("parse response: %w", err)
	}
	return apiResp, nil
}

func (c *OpenMeteoClient) isRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrBadRequest) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}

func (c *OpenMeteoClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, coord models.Coordinate, hourly, daily []string) (*http.Request, error) {
	u := *c.apiURL

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	if len(hourly) > 0 {
		params.Set("hourly", strings.Join(hourly, ","))
	}
	if len(daily) > 0 {
		params.Set("daily", strings.Join(daily, ","))
	}
	params.Set("timeformat", "unixtime")
	params.Set("timezone", c.timezone)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

// handleErrorResponse maps a non-2xx status to a sentinel. Open-Meteo explains 400s in a "reason" field.
func handleErrorResponse(statusCode int, body []byte) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusBadRequest:
		var apiErr struct {
			Reason string `json:"reason"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("%w: %s", ErrBadRequest, apiErr.Reason)
		}
		return fmt.Errorf("%w: HTTP %d", ErrBadRequest, statusCode)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, statusCode)
	}
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// Ping issues a single minimal request, bypassing retries and the circuit breaker.
func (c *OpenMeteoClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := c.buildRequest(ctx, models.Coordinate{}, nil, forecastDailyVars)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ping HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}
