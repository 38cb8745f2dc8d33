// Package degraded decides when upstream failures have made the service
// degraded and probes the weather provider until it recovers.
package degraded

import (
	"time"

	"github.com/kjstillabower/solar-forecast-service/internal/traffic"
)

// IsDegraded reports whether the failure share of requests in window reached pct percent.
// A zero window or pct disables the check.
func IsDegraded(window time.Duration, pct int) bool {
	if window <= 0 || pct <= 0 {
		return false
	}
	errors, total := traffic.ErrorRate(window)
	if total == 0 {
		return false
	}
	return float64(errors)*100/float64(total) >= float64(pct)
}

// Reset clears the error window after a successful recovery. Rate-limit denials
// are kept since they describe load, not upstream health.
func Reset() {
	traffic.ClearErrorWindow()
}
