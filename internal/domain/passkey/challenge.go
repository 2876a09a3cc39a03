package passkey

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Purpose identifies what ceremony a challenge was issued for.
type Purpose string

const (
	PurposeRegistration   Purpose = "registration"
	PurposeAuthentication Purpose = "authentication"
	PurposeRecovery       Purpose = "recovery"
)

// IsValid reports whether the purpose is one of the known ceremonies.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeRegistration, PurposeAuthentication, PurposeRecovery:
		return true
	}
	return false
}

const challengeBytes = 32

// Challenge is a single-use random value bound to one WebAuthn ceremony.
type Challenge struct {
	id        uint
	sid       string // external API identifier (pc_xxx)
	value     string // base64url without padding
	userID    *uint  // nil for discoverable-credential authentication
	purpose   Purpose
	sessionID string
	used      bool
	usedAt    *time.Time
	createdAt time.Time
	expiresAt time.Time
}

// NewChallenge creates a challenge with a fresh 32-byte random value.
func NewChallenge(
	purpose Purpose,
	userID *uint,
	sessionID string,
	ttl time.Duration,
	sidGenerator func() (string, error),
	now time.Time,
) (*Challenge, error) {
	if !purpose.IsValid() {
		return nil, fmt.Errorf("invalid challenge purpose: %s", purpose)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("challenge TTL must be positive")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	raw := make([]byte, challengeBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate challenge value: %w", err)
	}

	return &Challenge{
		sid:       sid,
		value:     base64.RawURLEncoding.EncodeToString(raw),
		userID:    userID,
		purpose:   purpose,
		sessionID: sessionID,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}, nil
}

// ReconstructChallenge reconstructs a challenge from persistence
func ReconstructChallenge(
	id uint,
	sid string,
	value string,
	userID *uint,
	purpose Purpose,
	sessionID string,
	used bool,
	usedAt *time.Time,
	createdAt time.Time,
	expiresAt time.Time,
) (*Challenge, error) {
	if id == 0 {
		return nil, fmt.Errorf("challenge ID cannot be zero")
	}
	if value == "" {
		return nil, fmt.Errorf("challenge value is required")
	}

	return &Challenge{
		id:        id,
		sid:       sid,
		value:     value,
		userID:    userID,
		purpose:   purpose,
		sessionID: sessionID,
		used:      used,
		usedAt:    usedAt,
		createdAt: createdAt,
		expiresAt: expiresAt,
	}, nil
}

// ID returns the internal ID
func (c *Challenge) ID() uint {
	return c.id
}

// SID returns the external SID (pc_xxx)
func (c *Challenge) SID() string {
	return c.sid
}

// Value returns the base64url challenge value
func (c *Challenge) Value() string {
	return c.value
}

// UserID returns the bound user, if any
func (c *Challenge) UserID() *uint {
	return c.userID
}

// Purpose returns the ceremony purpose
func (c *Challenge) Purpose() Purpose {
	return c.purpose
}

// SessionID returns the opaque session binding
func (c *Challenge) SessionID() string {
	return c.sessionID
}

// Used reports whether the challenge has been consumed
func (c *Challenge) Used() bool {
	return c.used
}

// UsedAt returns when the challenge was consumed
func (c *Challenge) UsedAt() *time.Time {
	return c.usedAt
}

// CreatedAt returns when the challenge was issued
func (c *Challenge) CreatedAt() time.Time {
	return c.createdAt
}

// ExpiresAt returns the challenge deadline
func (c *Challenge) ExpiresAt() time.Time {
	return c.expiresAt
}

// IsExpired reports whether the challenge deadline has passed.
func (c *Challenge) IsExpired(now time.Time) bool {
	return !now.Before(c.expiresAt)
}

// Consume marks the challenge as used. Expired or already-consumed
// challenges cannot be consumed.
func (c *Challenge) Consume(now time.Time) error {
	if c.used {
		return fmt.Errorf("challenge %s already used", c.sid)
	}
	if c.IsExpired(now) {
		return fmt.Errorf("challenge %s expired at %s", c.sid, c.expiresAt)
	}
	c.used = true
	c.usedAt = &now
	return nil
}

// SetID sets the internal ID (only for persistence layer use)
func (c *Challenge) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("challenge ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("challenge ID cannot be zero")
	}
	c.id = id
	return nil
}
