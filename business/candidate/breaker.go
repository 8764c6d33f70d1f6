package candidate

import (
	"context"
	"errors"
	"time"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker around a Generator.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // closed-state count reset
	Timeout     time.Duration // open -> half-open
	MinRequests uint32
	FailureRate float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "candidate-generator",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

// BreakerGenerator fails fast while the wrapped generator keeps failing.
type BreakerGenerator struct {
	next Generator
	cb   *gobreaker.CircuitBreaker[[]domain.Outfit]
	name string
}

func NewBreakerGenerator(next Generator, st BreakerSettings) *BreakerGenerator {
	if st.Name == "" {
		st.Name = DefaultBreakerSettings().Name
	}

	CandidateBreakerState.WithLabelValues(st.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]domain.Outfit](gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.MaxRequests,
		Interval:    st.Interval,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < st.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= st.FailureRate {
				logger.Warn("candidate breaker opening",
					"failures", counts.TotalFailures,
					"failure_rate", ratio,
				)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("candidate breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			CandidateBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// a cancelled request says nothing about the generator's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerGenerator{next: next, cb: cb, name: st.Name}
}

func (b *BreakerGenerator) Generate(ctx context.Context, req Request) ([]domain.Outfit, error) {
	out, err := b.cb.Execute(func() ([]domain.Outfit, error) {
		return b.next.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			CandidateBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			CandidateBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}

	CandidateBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return out, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
