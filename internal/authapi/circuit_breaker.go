package authapi

import (
	"resumekit/internal/config"
	"resumekit/internal/errors"
	"resumekit/internal/identity"

	"github.com/sony/gobreaker/v2"
)

// Breaker wraps auth endpoint calls with circuit breaker protection. A run
// of transport failures opens the circuit so a dead backend is not hammered
// on every navigation.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[*identity.User]
}

// NewBreaker creates a circuit breaker for auth backend calls
func NewBreaker(cfg *config.CircuitBreakerConfig, logger *errors.Logger) *Breaker {
	// If circuit breaker is disabled, return nil to indicate no circuit breaker
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "auth-backend",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// Rejected credentials and missing sessions are expected outcomes,
		// not backend failures; only transport errors and 5xx responses
		// count against the circuit.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				return false
			}
			if appErr.Type == errors.ErrorTypeTransport {
				return false
			}
			if status, ok := appErr.Context["status"].(int); ok && status >= 500 {
				return false
			}
			return true
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"from", from.String(),
					"to", to.String(),
					"max_requests", cfg.MaxRequests,
					"failure_threshold", cfg.FailureThreshold)
			}
		},
	}

	return &Breaker{
		cb: gobreaker.NewCircuitBreaker[*identity.User](settings),
	}
}

// Execute executes the provided function with circuit breaker protection
func (b *Breaker) Execute(fn func() (*identity.User, error)) (*identity.User, error) {
	if b == nil || b.cb == nil {
		// If breaker is disabled/nil, just execute the function directly
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (b *Breaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *Breaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return b.cb.State() == gobreaker.StateClosed
}
