package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/veridian-id/veridian/internal/shared/config"
)

// RecoveryStartGate throttles recovery starts per email and per source IP
// using sliding windows. A denied window counts the probe, so hammering a
// throttled email keeps it throttled.
type RecoveryStartGate struct {
	limiter RateLimiter
	cfg     config.RecoveryConfig
}

func NewRecoveryStartGate(limiter RateLimiter, cfg config.RecoveryConfig) *RecoveryStartGate {
	return &RecoveryStartGate{limiter: limiter, cfg: cfg}
}

func (g *RecoveryStartGate) AllowStart(ctx context.Context, email, ip string) (bool, error) {
	emailKey := fmt.Sprintf("recovery:start:email:%s", strings.ToLower(email))
	allowed, err := g.limiter.Allow(ctx, emailKey, RateLimitConfig{
		RequestsPerDay: g.cfg.StartsPerEmailPerDay,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check email rate limit: %w", err)
	}
	if !allowed {
		return false, nil
	}

	if ip == "" {
		return true, nil
	}

	ipKey := fmt.Sprintf("recovery:start:ip:%s", ip)
	allowed, err = g.limiter.Allow(ctx, ipKey, RateLimitConfig{
		RequestsPerHour: g.cfg.StartsPerIPPerHour,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check ip rate limit: %w", err)
	}

	return allowed, nil
}
