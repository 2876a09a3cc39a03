package usecases

import (
	"context"
	"time"

	"github.com/veridian-id/veridian/internal/domain/otp"
)

// CodeDispatcher delivers a one-time code plaintext over the given channel.
// Delivery runs after the code is persisted and never rolls it back.
type CodeDispatcher interface {
	SendCode(ctx context.Context, channel otp.Channel, target, code string, purpose otp.Purpose) error
}

// Config carries the issuance knobs shared by the SMS and email channels.
type Config struct {
	CodeLength  int
	TTL         time.Duration
	Cooldown    time.Duration
	DailyCap    int
	MaxAttempts int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CodeLength:  6,
		TTL:         5 * time.Minute,
		Cooldown:    60 * time.Second,
		DailyCap:    10,
		MaxAttempts: 5,
	}
}
