package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

// BreakerSettings configures NewBreakerFetcher.
type BreakerSettings struct {
	// Host is reported in the errors of skipped fetches
	Host string
	// Failures is how many consecutive communication errors open the breaker
	Failures uint32
	// Cooldown is how long the breaker stays open before one trial fetch
	Cooldown time.Duration
}

// BreakerFetcher stops hammering an unreachable heater. After Failures
// consecutive communication errors fetches fail fast with a communication
// error until Cooldown has passed, so the coordinator keeps serving the
// cached snapshot. API errors do not count as failures.
type BreakerFetcher struct {
	next Fetcher
	host string
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerFetcher wraps next in a circuit breaker.
func NewBreakerFetcher(next Fetcher, settings BreakerSettings) *BreakerFetcher {
	failures := settings.Failures
	if failures == 0 {
		failures = 1
	}

	return &BreakerFetcher{
		next: next,
		host: settings.Host,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "heater-fetch",
			Timeout: settings.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !heater.IsCommunicationError(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Info("Heater fetch breaker changed state",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// FetchSnapshot implements Fetcher
func (b *BreakerFetcher) FetchSnapshot(ctx context.Context) (*heater.Snapshot, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.FetchSnapshot(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, heater.NewCircuitOpenError(b.host, err)
	}
	if err != nil {
		return nil, err
	}
	return res.(*heater.Snapshot), nil
}

// State returns the breaker state: closed, half-open or open.
func (b *BreakerFetcher) State() string {
	return b.cb.State().String()
}
