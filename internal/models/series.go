package models

// Coordinate is a validated latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// RawSeries carries the time metadata of one provider series block.
// Sample i is taken at StartEpoch + i*IntervalSeconds; UTCOffsetSeconds is
// added when materializing timestamps.
type RawSeries struct {
	StartEpoch       int64
	EndEpoch         int64
	IntervalSeconds  int64
	UTCOffsetSeconds int64
}

// ForecastHourly holds the hourly variables requested for the forecast view.
type ForecastHourly struct {
	RawSeries
	Temperature []float64
	WeatherCode []float64
}

// ForecastDaily holds the daily variables requested for the forecast view.
type ForecastDaily struct {
	RawSeries
	DaylightDuration []float64 // seconds
}

// ForecastSeries is the fetcher result for the forecast view. A nil block
// means the provider returned no such series.
type ForecastSeries struct {
	Hourly *ForecastHourly
	Daily  *ForecastDaily
}

// SummaryHourly holds the hourly variables requested for the summary view.
type SummaryHourly struct {
	RawSeries
	Temperature              []float64
	RelativeHumidity         []float64
	PrecipitationProbability []float64
	Precipitation            []float64
	Rain                     []float64
	Snowfall                 []float64
	SurfacePressure          []float64
}

// SummaryDaily holds the daily variables requested for the summary view.
type SummaryDaily struct {
	RawSeries
	SunshineDuration []float64 // seconds
}

// SummarySeries is the fetcher result for the summary view.
type SummarySeries struct {
	Hourly *SummaryHourly
	Daily  *SummaryDaily
}
