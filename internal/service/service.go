package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/solar-forecast-service/internal/aggregation"
	"github.com/kjstillabower/solar-forecast-service/internal/client"
	"github.com/kjstillabower/solar-forecast-service/internal/models"
	"github.com/kjstillabower/solar-forecast-service/internal/observability"
)

// WeatherService fetches provider series for a coordinate and runs them through
// the aggregation core. It holds no per-request state beyond in-flight coalescing.
type WeatherService struct {
	fetcher   client.SeriesFetcher
	estimator aggregation.EnergyEstimator
	logger    *zap.Logger
	forecasts *coalescer[models.ForecastSeries]
	summaries *coalescer[models.SummarySeries]
}

// NewWeatherService creates a WeatherService. coalesceTimeout bounds shared upstream
// fetches; 0 disables coalescing so every request calls the fetcher.
func NewWeatherService(fetcher client.SeriesFetcher, estimator aggregation.EnergyEstimator, logger *zap.Logger, coalesceTimeout time.Duration) *WeatherService {
	s := &WeatherService{
		fetcher:   fetcher,
		estimator: estimator,
		logger:    logger,
	}
	if coalesceTimeout > 0 {
		s.forecasts = newCoalescer[models.ForecastSeries](coalesceTimeout)
		s.summaries = newCoalescer[models.SummarySeries](coalesceTimeout)
	}
	return s
}

// Forecast returns the per-day forecast with estimated PV energy for coord.
func (s *WeatherService) Forecast(ctx context.Context, coord models.Coordinate) ([]models.DailyForecast, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, s.logger)

	series, err := fetchShared(ctx, s.forecasts, "forecast", coord, s.fetcher.FetchForecastSeries)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast series: %w", err)
	}

	forecast, err := aggregation.BuildForecast(series, s.estimator)
	if err != nil {
		return nil, fmt.Errorf("build forecast: %w", err)
	}
	if n := len(forecast.MissingDays); n > 0 {
		observability.ForecastDaysOmittedTotal.Add(float64(n))
		logger.Warn("forecast days omitted",
			zap.Ints("days", forecast.MissingDays),
			zap.Float64("latitude", coord.Latitude),
			zap.Float64("longitude", coord.Longitude))
	}

	logger.Debug("forecast served",
		zap.Int("days", len(forecast.Days)),
		zap.Duration("duration", time.Since(start)))
	return forecast.Days, nil
}

// Summary returns the period summary for coord.
func (s *WeatherService) Summary(ctx context.Context, coord models.Coordinate) (models.PeriodSummary, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, s.logger)

	series, err := fetchShared(ctx, s.summaries, "summary", coord, s.fetcher.FetchSummarySeries)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("fetch summary series: %w", err)
	}

	summary, err := aggregation.BuildSummary(series)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("build summary: %w", err)
	}
	observability.SummaryClassificationsTotal.WithLabelValues(string(summary.WeatherSummary)).Inc()

	logger.Debug("summary served",
		zap.String("date_range", summary.DateRange),
		zap.String("weather_summary", string(summary.WeatherSummary)),
		zap.Duration("duration", time.Since(start)))
	return summary, nil
}

// fetchShared calls fetch through the coalescer when one is configured.
func fetchShared[T any](
	ctx context.Context,
	c *coalescer[T],
	view string,
	coord models.Coordinate,
	fetch func(context.Context, models.Coordinate) (T, error),
) (T, error) {
	if c == nil {
		return fetch(ctx, coord)
	}
	val, shared, err := c.Do(ctx, coordinateKey(coord), func(ctx context.Context) (T, error) {
		return fetch(ctx, coord)
	})
	if shared {
		observability.UpstreamCoalescedTotal.WithLabelValues(view).Inc()
	}
	return val, err
}

// coordinateKey identifies a coordinate for coalescing. Equal floats give equal keys.
func coordinateKey(coord models.Coordinate) string {
	return strconv.FormatFloat(coord.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(coord.Longitude, 'f', -1, 64)
}
