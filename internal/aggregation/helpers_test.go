package aggregation

import "github.com/kjstillabower/solar-forecast-service/internal/models"

// 2024-01-01T00:00:00Z
const testStart int64 = 1704067200

func hourlyMeta(n int) models.RawSeries {
	return models.RawSeries{
		StartEpoch:      testStart,
		EndEpoch:        testStart + int64(n)*3600,
		IntervalSeconds: 3600,
	}
}

func dailyMeta(n int) models.RawSeries {
	return models.RawSeries{
		StartEpoch:      testStart,
		EndEpoch:        testStart + int64(n)*86400,
		IntervalSeconds: 86400,
	}
}

func fill(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func forecastSeries(hours, days int, temp, code, daylight func(i int) float64) models.ForecastSeries {
	return models.ForecastSeries{
		Hourly: &models.ForecastHourly{
			RawSeries:   hourlyMeta(hours),
			Temperature: fill(hours, temp),
			WeatherCode: fill(hours, code),
		},
		Daily: &models.ForecastDaily{
			RawSeries:        dailyMeta(days),
			DaylightDuration: fill(days, daylight),
		},
	}
}

func summarySeries(hours, days int) models.SummarySeries {
	return models.SummarySeries{
		Hourly: &models.SummaryHourly{
			RawSeries:                hourlyMeta(hours),
			Temperature:              fill(hours, constant(5)),
			RelativeHumidity:         fill(hours, constant(80)),
			PrecipitationProbability: fill(hours, constant(0)),
			Precipitation:            fill(hours, constant(0)),
			Rain:                     fill(hours, constant(0)),
			Snowfall:                 fill(hours, constant(0)),
			SurfacePressure:          fill(hours, constant(1013)),
		},
		Daily: &models.SummaryDaily{
			RawSeries:        dailyMeta(days),
			SunshineDuration: fill(days, constant(3600)),
		},
	}
}
