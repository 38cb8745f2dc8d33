package models

// DailyForecast is one day of the 7-day forecast view.
type DailyForecast struct {
	Date            string  `json:"date"`
	Code            int     `json:"code"`
	MinTemp         float64 `json:"minTemp"`
	MaxTemp         float64 `json:"maxTemp"`
	GeneratedEnergy float64 `json:"generatedEnergy"`
}

// ExtremeTemperatures holds the period temperature range.
type ExtremeTemperatures struct {
	MinTemp float64 `json:"minTemp"`
	MaxTemp float64 `json:"maxTemp"`
}

// WeatherSummary is the categorical precipitation summary of a period.
type WeatherSummary string

const (
	SummaryNoPrecipitation WeatherSummary = "no precipitation"
	SummarySnow            WeatherSummary = "snow"
	SummaryRain            WeatherSummary = "rain"
)

// PeriodSummary is the multi-day summary view.
type PeriodSummary struct {
	DateRange            string              `json:"dateRange"`
	AveragePressure      float64             `json:"averagePressure"`
	AverageSunshineHours float64             `json:"averageSunshineHours"`
	ExtremeTemperatures  ExtremeTemperatures `json:"extremeTemperatures"`
	WeatherSummary       WeatherSummary      `json:"weatherSummary"`
}

// DataResponse is the success envelope of the HTTP API.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the error envelope of the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
