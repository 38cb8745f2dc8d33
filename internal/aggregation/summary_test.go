package aggregation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
)

func TestBuildSummary_SunshineHours(t *testing.T) {
	series := summarySeries(48, 2)
	series.Daily.SunshineDuration = []float64{3600, 7200}

	got, err := BuildSummary(series)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.AverageSunshineHours)
	assert.Equal(t, "2024-01-01 - 2024-01-02", got.DateRange)
}

// TestBuildSummary_RainScenario verifies that rainy hours are compared against half the daily series length, not the hourly length.
func TestBuildSummary_RainScenario(t *testing.T) {
	series := summarySeries(10, 5)
	series.Hourly.Rain = []float64{0.2, 0, 1.1, 0, 0.4, 0, 3, 0, 0.1, 0}

	got, err := BuildSummary(series)
	require.NoError(t, err)
	assert.Equal(t, models.SummaryRain, got.WeatherSummary)
	assert.Equal(t, "2024-01-01 - 2024-01-05", got.DateRange)
}

// TestBuildSummary_SnowAndTie verifies that snow wins a strict majority and that an equal rain/snow count falls through to no precipitation.
func TestBuildSummary_SnowAndTie(t *testing.T) {
	series := summarySeries(10, 5)
	series.Hourly.Snowfall = fill(10, func(i int) float64 {
		if i < 4 {
			return 0.5
		}
		return 0
	})
	got, err := BuildSummary(series)
	require.NoError(t, err)
	assert.Equal(t, models.SummarySnow, got.WeatherSummary)

	series.Hourly.Rain = fill(10, func(i int) float64 {
		if i >= 6 {
			return 0.5
		}
		return 0
	})
	got, err = BuildSummary(series)
	require.NoError(t, err)
	assert.Equal(t, models.SummaryNoPrecipitation, got.WeatherSummary)
}

// TestBuildSummary_PressureAndExtremes verifies that null samples are skipped and averages are rounded only for presentation.
func TestBuildSummary_PressureAndExtremes(t *testing.T) {
	series := summarySeries(4, 1)
	series.Hourly.SurfacePressure = []float64{1013.111, 1013.115, math.NaN(), 1013.113}
	series.Hourly.Temperature = []float64{-3.5, 12.25, 4, 0}

	got, err := BuildSummary(series)
	require.NoError(t, err)
	assert.Equal(t, 1013.11, got.AveragePressure)
	assert.Equal(t, -3.5, got.ExtremeTemperatures.MinTemp)
	assert.Equal(t, 12.25, got.ExtremeTemperatures.MaxTemp)
	assert.GreaterOrEqual(t, got.ExtremeTemperatures.MaxTemp, got.ExtremeTemperatures.MinTemp)
	assert.Equal(t, "2024-01-01 - 2024-01-01", got.DateRange)
}

func TestBuildSummary_MissingBlocks(t *testing.T) {
	series := summarySeries(24, 1)

	noHourly := series
	noHourly.Hourly = nil
	_, err := BuildSummary(noHourly)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	noDaily := series
	noDaily.Daily = nil
	_, err = BuildSummary(noDaily)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestBuildSummary_LengthMismatch(t *testing.T) {
	series := summarySeries(24, 2)
	series.Hourly.SurfacePressure = series.Hourly.SurfacePressure[:23]
	_, err := BuildSummary(series)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	series = summarySeries(24, 2)
	series.Daily.SunshineDuration = append(series.Daily.SunshineDuration, 100)
	_, err = BuildSummary(series)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

// TestBuildSummary_EmptySeries verifies that an all-null reduction maps to data unavailable.
func TestBuildSummary_EmptySeries(t *testing.T) {
	_, err := BuildSummary(summarySeries(24, 0))
	assert.ErrorIs(t, err, ErrAggregation)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = BuildSummary(summarySeries(0, 2))
	assert.ErrorIs(t, err, ErrEmptySeries)

	series := summarySeries(3, 1)
	series.Hourly.SurfacePressure = []float64{math.NaN(), math.NaN(), math.NaN()}
	_, err = BuildSummary(series)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestBuildSummary_Idempotent(t *testing.T) {
	series := summarySeries(168, 7)
	series.Hourly.Temperature = fill(168, func(i int) float64 { return math.Cos(float64(i)) * 7 })

	first, err := BuildSummary(series)
	require.NoError(t, err)
	second, err := BuildSummary(series)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, first, second)
}

// TestBuildSummary_OverflowingPressure verifies that a mean that overflows to +Inf
// is reported as an aggregation failure rather than a data gap or a number.
func TestBuildSummary_OverflowingPressure(t *testing.T) {
	series := summarySeries(168, 7)
	series.Hourly.SurfacePressure = fill(168, constant(1e307))

	_, err := BuildSummary(series)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.ErrorIs(t, err, ErrAggregation)
	assert.NotErrorIs(t, err, ErrDataUnavailable)
}
