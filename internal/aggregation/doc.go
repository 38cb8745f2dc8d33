// Package aggregation reduces provider time series into the fixed-shape
// forecast and summary views.
//
// Everything in this package is pure: no I/O, no logging, no shared state.
// Callers receive tagged errors (ErrDataUnavailable, ErrAggregation) and decide
// how to surface them.
package aggregation
