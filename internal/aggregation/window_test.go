package aggregation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesOf(n int) []HourlySample {
	timeline := TimelineOf(hourlyMeta(n))
	samples, err := ZipHourly(timeline, fill(n, func(i int) float64 { return float64(i) }), fill(n, constant(1)))
	if err != nil {
		panic(err)
	}
	return samples
}

// TestZipHourly_LengthMismatch verifies that a value array shorter than its timeline is a data gap, not a panic.
func TestZipHourly_LengthMismatch(t *testing.T) {
	timeline := TimelineOf(hourlyMeta(24))
	_, err := ZipHourly(timeline, fill(23, constant(1)), fill(24, constant(1)))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = ZipHourly(timeline, fill(24, constant(1)), fill(25, constant(1)))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

// TestZipHourly_NullWeatherCode verifies that a null weather code becomes the unknown code.
func TestZipHourly_NullWeatherCode(t *testing.T) {
	timeline := TimelineOf(hourlyMeta(2))
	samples, err := ZipHourly(timeline, []float64{1, 2}, []float64{math.NaN(), 61})
	require.NoError(t, err)
	assert.Equal(t, UnknownWeatherCode, samples[0].WeatherCode)
	assert.Equal(t, 61, samples[1].WeatherCode)
	assert.Equal(t, timeline[1], samples[1].Time)
}

// TestWindowDays_BucketCounts verifies that the bucket count is ceil(samples/24) capped at the 7-day horizon.
func TestWindowDays_BucketCounts(t *testing.T) {
	tests := []struct {
		name      string
		samples   int
		wantSizes []int
	}{
		{"full horizon", 168, []int{24, 24, 24, 24, 24, 24, 24}},
		{"beyond horizon", 200, []int{24, 24, 24, 24, 24, 24, 24}},
		{"partial last bucket", 50, []int{24, 24, 2}},
		{"single sample", 1, []int{1}},
		{"empty", 0, []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buckets := WindowDays(samplesOf(tc.samples))
			sizes := make([]int, len(buckets))
			for i, b := range buckets {
				sizes[i] = len(b)
			}
			assert.Equal(t, tc.wantSizes, sizes)
		})
	}
}

func TestWindowDays_BucketBoundaries(t *testing.T) {
	buckets := WindowDays(samplesOf(200))
	for i, b := range buckets {
		assert.Equal(t, float64(24*i), b[0].Temperature, "bucket %d first index", i)
		assert.Equal(t, float64(24*i+23), b[len(b)-1].Temperature, "bucket %d last index", i)
	}
}

// TestWindowDays_BucketsDoNotAlias verifies that appending to one bucket cannot overwrite the first sample of the next.
func TestWindowDays_BucketsDoNotAlias(t *testing.T) {
	samples := samplesOf(48)
	buckets := WindowDays(samples)
	buckets[0] = append(buckets[0], HourlySample{Temperature: -99})
	assert.Equal(t, float64(24), buckets[1][0].Temperature)
	assert.Equal(t, float64(24), samples[24].Temperature)
}

// TestDailyValue verifies that lookups past the daily series fail with data unavailable for that day only.
func TestDailyValue(t *testing.T) {
	series := []float64{3600, math.NaN(), 7200}

	v, err := DailyValue(series, 2)
	require.NoError(t, err)
	assert.Equal(t, 7200.0, v)

	for _, day := range []int{-1, 3, 6} {
		_, err := DailyValue(series, day)
		assert.ErrorIs(t, err, ErrDataUnavailable, "day %d", day)
	}

	_, err = DailyValue(series, 1)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
