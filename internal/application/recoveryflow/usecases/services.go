package usecases

import (
	"context"
	"time"
)

// UserAccount is the minimal identity the recovery flow needs.
type UserAccount struct {
	ID    uint
	Email string
}

// UserDirectory resolves account emails. FindByEmail returns (nil, nil)
// for unknown addresses.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*UserAccount, error)
}

// RecoveryTokenIssuer signs the short-lived credential handed out when a
// recovery request completes.
type RecoveryTokenIssuer interface {
	Issue(userID uint, requestSID string) (token string, expiresAt time.Time, err error)
}

// StartGate throttles recovery starts per email and per source IP.
type StartGate interface {
	AllowStart(ctx context.Context, email, ip string) (bool, error)
}

// Config carries the recovery flow knobs.
type Config struct {
	RequestTTL      time.Duration
	MaxStepAttempts int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		RequestTTL:      30 * time.Minute,
		MaxStepAttempts: 5,
	}
}

// StatusDTO is the API view of a recovery request.
type StatusDTO struct {
	RequestID     string     `json:"request_id"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	SMSVerified   bool       `json:"sms_verified"`
	MFARequired   bool       `json:"mfa_required"`
	PhoneHint     string     `json:"phone_hint,omitempty"`
	Ready         bool       `json:"ready"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
