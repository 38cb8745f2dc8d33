package aggregation

import (
	"fmt"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
)

type namedSeries struct {
	name   string
	values []float64
}

// requireLength checks that every series matches the timeline length of its block.
func requireLength(block string, want int, series ...namedSeries) error {
	for _, s := range series {
		if len(s.values) != want {
			return fmt.Errorf("%w: %s %s has %d samples, timeline has %d",
				ErrDataUnavailable, block, s.name, len(s.values), want)
		}
	}
	return nil
}

// BuildSummary reduces the whole fetched period into a PeriodSummary:
// mean surface pressure, mean sunshine hours, global temperature extremes
// and a precipitation category.
func BuildSummary(series models.SummarySeries) (models.PeriodSummary, error) {
	if series.Hourly == nil {
		return models.PeriodSummary{}, fmt.Errorf("%w: no hourly series", ErrDataUnavailable)
	}
	if series.Daily == nil {
		return models.PeriodSummary{}, fmt.Errorf("%w: no daily series", ErrDataUnavailable)
	}
	h, d := series.Hourly, series.Daily

	hourly := TimelineOf(h.RawSeries)
	if err := requireLength("hourly", len(hourly),
		namedSeries{"temperature_2m", h.Temperature},
		namedSeries{"rain", h.Rain},
		namedSeries{"snowfall", h.Snowfall},
		namedSeries{"surface_pressure", h.SurfacePressure},
	); err != nil {
		return models.PeriodSummary{}, err
	}
	daily := TimelineOf(d.RawSeries)
	if err := requireLength("daily", len(daily), namedSeries{"sunshine_duration", d.SunshineDuration}); err != nil {
		return models.PeriodSummary{}, err
	}
	if len(daily) == 0 {
		return models.PeriodSummary{}, fmt.Errorf("daily timeline: %w", ErrEmptySeries)
	}

	pressure, err := mean(h.SurfacePressure)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("surface pressure: %w", err)
	}
	sunshine, err := mean(d.SunshineDuration)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("sunshine duration: %w", err)
	}
	lo, hi, err := minMax(h.Temperature)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("temperature: %w", err)
	}

	avgPressure, avgSunshine := Round2(pressure), Round2(sunshine/secondsPerHour)
	if !isFinite(avgPressure) || !isFinite(avgSunshine) {
		return models.PeriodSummary{}, fmt.Errorf("round averages: %w", ErrNonFinite)
	}

	return models.PeriodSummary{
		DateRange:            dateOf(daily[0]) + " - " + dateOf(daily[len(daily)-1]),
		AveragePressure:      avgPressure,
		AverageSunshineHours: avgSunshine,
		ExtremeTemperatures: models.ExtremeTemperatures{
			MinTemp: lo,
			MaxTemp: hi,
		},
		WeatherSummary: ClassifyPrecipitation(countPositive(h.Rain), countPositive(h.Snowfall), len(d.SunshineDuration)),
	}, nil
}
