package erddap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrBreakerOpen is reported by CheckReadiness while submissions fail fast.
var ErrBreakerOpen = errors.New("erddap circuit breaker is open")

type submitter interface {
	Submit(ctx context.Context, sub domain.Submission) error
}

// GuardConfig controls the optional protections around a submitter.
type GuardConfig struct {
	// RateLimit is the steady-state requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int

	BreakerEnabled bool
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// GuardedSubmitter wraps a submitter with a rate limiter and a circuit
// breaker. It never retries.
type GuardedSubmitter struct {
	inner   submitter
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedSubmitter creates a guard decorator around inner.
func NewGuardedSubmitter(inner submitter, cfg GuardConfig, metrics *observability.Metrics, logger *slog.Logger) *GuardedSubmitter {
	g := &GuardedSubmitter{inner: inner}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if cfg.BreakerEnabled {
		failures := cfg.ConsecutiveFailures
		if failures == 0 {
			failures = 5
		}
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "erddap",
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				if to == gobreaker.StateOpen {
					metrics.BreakerOpen.Set(1)
				} else {
					metrics.BreakerOpen.Set(0)
				}
			},
		})
	}
	return g
}

// countsAsSuccess keeps configuration errors (404 and other 4xx) from
// tripping the breaker; only transport failures and 5xx do.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return false
}

// Submit implements pipeline.Submitter.
func (g *GuardedSubmitter) Submit(ctx context.Context, sub domain.Submission) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if g.breaker == nil {
		return g.inner.Submit(ctx, sub)
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.inner.Submit(ctx, sub)
	})
	return err
}

// CheckReadiness reports ErrBreakerOpen while the breaker is open.
func (g *GuardedSubmitter) CheckReadiness(_ context.Context) error {
	if g.breaker != nil && g.breaker.State() == gobreaker.StateOpen {
		return ErrBreakerOpen
	}
	return nil
}
