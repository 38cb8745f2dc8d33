package aggregation

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable is returned when the provider omitted a series block or
	// the series cannot be aligned with its timeline.
	ErrDataUnavailable = errors.New("weather data is unavailable")

	// ErrAggregation is returned for degenerate reduction inputs.
	ErrAggregation = errors.New("aggregation failed")

	// ErrEmptySeries is the AggregationError raised for a reduction over zero
	// samples. It also matches ErrDataUnavailable so callers map it to 404.
	ErrEmptySeries = fmt.Errorf("%w: empty series: %w", ErrAggregation, ErrDataUnavailable)

	// ErrNonFinite is returned when a reduction overflows. It is not a data gap.
	ErrNonFinite = fmt.Errorf("%w: non-finite result", ErrAggregation)
)
