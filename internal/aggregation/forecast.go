package aggregation

import (
	"errors"
	"fmt"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
)

// Forecast is the assembled forecast view. MissingDays lists bucket indices
// that were dropped because their daily value (or every hourly sample) was
// unavailable.
type Forecast struct {
	Days        []models.DailyForecast
	MissingDays []int
}

// BuildForecast windows the hourly series into day buckets and reduces each
// bucket to min/max temperature, the first sample's weather code and the
// estimated energy for the matching daily daylight duration.
func BuildForecast(series models.ForecastSeries, est EnergyEstimator) (Forecast, error) {
	if series.Hourly == nil {
		return Forecast{}, fmt.Errorf("%w: no hourly series", ErrDataUnavailable)
	}
	if series.Daily == nil {
		return Forecast{}, fmt.Errorf("%w: no daily series", ErrDataUnavailable)
	}

	samples, err := ZipHourly(TimelineOf(series.Hourly.RawSeries), series.Hourly.Temperature, series.Hourly.WeatherCode)
	if err != nil {
		return Forecast{}, err
	}

	buckets := WindowDays(samples)
	out := Forecast{Days: make([]models.DailyForecast, 0, len(buckets))}
	for i, bucket := range buckets {
		day, err := summarizeDay(bucket, series.Daily.DaylightDuration, i, est)
		if err != nil {
			if errors.Is(err, ErrDataUnavailable) {
				out.MissingDays = append(out.MissingDays, i)
				continue
			}
			return Forecast{}, fmt.Errorf("day %d: %w", i, err)
		}
		out.Days = append(out.Days, day)
	}
	return out, nil
}

func summarizeDay(bucket []HourlySample, daylight []float64, day int, est EnergyEstimator) (models.DailyForecast, error) {
	first := bucket[0]
	if first.WeatherCode == UnknownWeatherCode {
		return models.DailyForecast{}, fmt.Errorf("%w: weather code missing for day %d", ErrDataUnavailable, day)
	}

	temps := make([]float64, len(bucket))
	for i, s := range bucket {
		temps[i] = s.Temperature
	}
	lo, hi, err := minMax(temps)
	if err != nil {
		return models.DailyForecast{}, fmt.Errorf("temperature for day %d: %w", day, err)
	}

	seconds, err := DailyValue(daylight, day)
	if err != nil {
		return models.DailyForecast{}, err
	}

	return models.DailyForecast{
		Date:            dateOf(first.Time),
		Code:            first.WeatherCode,
		MinTemp:         lo,
		MaxTemp:         hi,
		GeneratedEnergy: est.Estimate(seconds),
	}, nil
}
