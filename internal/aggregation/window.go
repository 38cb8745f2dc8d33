package aggregation

import (
	"fmt"
	"math"
	"time"
)

const (
	// HoursPerDay is the fixed bucket size of the daily windower.
	HoursPerDay = 24
	// HorizonDays is the forecast horizon in buckets.
	HorizonDays = 7

	// UnknownWeatherCode marks an hourly sample whose weather code was null upstream.
	UnknownWeatherCode = -1
)

// HourlySample is one hourly observation zipped from a timeline and its value arrays.
type HourlySample struct {
	Time        time.Time
	Temperature float64
	WeatherCode int
}

// ZipHourly pairs each timeline entry with its temperature and weather code.
// All three sequences must have the same length.
func ZipHourly(timeline []time.Time, temperature, weatherCode []float64) ([]HourlySample, error) {
	if len(temperature) != len(timeline) || len(weatherCode) != len(timeline) {
		return nil, fmt.Errorf("%w: hourly arrays (temperature %d, weather code %d) do not match timeline length %d",
			ErrDataUnavailable, len(temperature), len(weatherCode), len(timeline))
	}
	samples := make([]HourlySample, len(timeline))
	for i, ts := range timeline {
		code := UnknownWeatherCode
		if c := weatherCode[i]; !math.IsNaN(c) && !math.IsInf(c, 0) {
			code = int(c)
		}
		samples[i] = HourlySample{
			Time:        ts,
			Temperature: temperature[i],
			WeatherCode: code,
		}
	}
	return samples, nil
}

// WindowDays partitions samples into consecutive day buckets of HoursPerDay
// samples. Bucket i holds global indices [24i, 24i+24). At most HorizonDays
// buckets are produced; samples past the horizon are dropped and the last
// bucket may be short. Every returned bucket has at least one sample.
func WindowDays(samples []HourlySample) [][]HourlySample {
	n := min(len(samples), HoursPerDay*HorizonDays)
	buckets := make([][]HourlySample, 0, HorizonDays)
	for start := 0; start < n; start += HoursPerDay {
		end := min(start+HoursPerDay, n)
		buckets = append(buckets, samples[start:end:end])
	}
	return buckets
}

// DailyValue returns series[day], failing with ErrDataUnavailable when the
// daily series has no usable entry for that day.
func DailyValue(series []float64, day int) (float64, error) {
	if day < 0 || day >= len(series) {
		return 0, fmt.Errorf("%w: no daily value for day %d (series has %d)", ErrDataUnavailable, day, len(series))
	}
	v := series[day]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: daily value for day %d is missing", ErrDataUnavailable, day)
	}
	return v, nil
}
