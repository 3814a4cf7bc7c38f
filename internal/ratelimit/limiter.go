// Package ratelimit provides token-bucket limiters for backend endpoint
// groups and windowed per-subject budgets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Endpoint groups of the onboarding backend.
const (
	GroupValidacion = "validacion"
	GroupBaterias   = "baterias"
	GroupIA         = "ia"
	GroupAsesores   = "asesores"
)

// GroupRates configures per-group request rates (requests per second).
type GroupRates struct {
	Validacion float64
	Baterias   float64
	IA         float64
	Asesores   float64
}

// DefaultGroupRates returns the rates agreed with the backend team.
func DefaultGroupRates() GroupRates {
	return GroupRates{
		Validacion: 20,
		Baterias:   10,
		IA:         2,
		Asesores:   5,
	}
}

// ServiceLimiter rate-limits backend calls per endpoint group using token buckets.
type ServiceLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func newBucket(rps float64) *rate.Limiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// NewServiceLimiter creates a limiter with the given per-group rates.
func NewServiceLimiter(rates GroupRates) *ServiceLimiter {
	limiters := map[string]*rate.Limiter{
		GroupValidacion: newBucket(rates.Validacion),
		GroupBaterias:   newBucket(rates.Baterias),
		GroupIA:         newBucket(rates.IA),
		GroupAsesores:   newBucket(rates.Asesores),
	}
	return &ServiceLimiter{limiters: limiters}
}

// Wait blocks until a token is available for the group, or ctx is cancelled.
func (sl *ServiceLimiter) Wait(ctx context.Context, group string) error {
	sl.mu.RLock()
	limiter, ok := sl.limiters[group]
	sl.mu.RUnlock()
	if !ok {
		return nil // unknown group = no limit
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", group, err)
	}
	return nil
}
