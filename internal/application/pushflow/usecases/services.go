package usecases

import (
	"context"
	"time"
)

// PushSubscription is the delivery address of one enrolled device.
type PushSubscription struct {
	Endpoint   string
	P256DH     string
	AuthSecret string
}

// AuthNotice is the payload shown on the device. It carries the challenge
// token the device echoes back when responding.
type AuthNotice struct {
	RequestID string
	Challenge string
	Purpose   string
	IP        string
	UserAgent string
	Location  string
	ExpiresAt time.Time
}

// PushSender delivers an authentication notice to one device.
type PushSender interface {
	SendAuthNotice(ctx context.Context, sub PushSubscription, notice AuthNotice) error
}

// Config carries the push flow knobs.
type Config struct {
	RequestTTL        time.Duration
	MaxPending        int
	MaxDeviceFailures int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		RequestTTL:        90 * time.Second,
		MaxPending:        3,
		MaxDeviceFailures: 5,
	}
}
