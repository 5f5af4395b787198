package providers

import (
	"time"

	"github.com/sony/gobreaker"
)

// newBreaker builds the circuit breaker shared by both senders so a dead
// provider fails fast instead of stalling every sweep on timeouts. A
// breaker-open error feeds the normal retry path.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}
