package aggregation

import "github.com/kjstillabower/solar-forecast-service/internal/models"

// ClassifyPrecipitation labels a period from its count of rainy and snowy
// hourly samples. The threshold is half the daily series length, so hourly
// counts are compared against a day count. Ties fall through to no precipitation.
func ClassifyPrecipitation(rainCount, snowCount, totalDays int) models.WeatherSummary {
	half := float64(totalDays) / 2
	switch {
	case snowCount > rainCount && float64(snowCount) > half:
		return models.SummarySnow
	case rainCount > snowCount && float64(rainCount) > half:
		return models.SummaryRain
	default:
		return models.SummaryNoPrecipitation
	}
}
