package aggregation

import (
	"time"

	"github.com/kjstillabower/solar-forecast-service/internal/models"
)

// Timeline expands series metadata into one timestamp per sample.
// Element i is start + i*interval + offset seconds, as a UTC instant.
// The sample count is (end-start)/interval, floored. Degenerate input
// (end <= start or interval <= 0) yields an empty, non-nil timeline.
func Timeline(start, end, interval, offset int64) []time.Time {
	if interval <= 0 || end <= start {
		return []time.Time{}
	}
	n := (end - start) / interval
	out := make([]time.Time, n)
	for i := int64(0); i < n; i++ {
		out[i] = time.Unix(start+i*interval+offset, 0).UTC()
	}
	return out
}

// TimelineOf is Timeline applied to a RawSeries.
func TimelineOf(s models.RawSeries) []time.Time {
	return Timeline(s.StartEpoch, s.EndEpoch, s.IntervalSeconds, s.UTCOffsetSeconds)
}

// dateOf formats t as an ISO calendar date.
func dateOf(t time.Time) string {
	return t.Format(time.DateOnly)
}
