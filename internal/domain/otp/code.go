package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Channel is the delivery channel for a one-time code.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// IsValid reports whether the channel is known.
func (c Channel) IsValid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

// Purpose identifies what flow a one-time code belongs to. Codes are only
// valid within the flow that issued them.
type Purpose string

const (
	PurposeRegistration   Purpose = "registration"
	PurposeAuthentication Purpose = "authentication"
	PurposeRecoveryEmail  Purpose = "recovery-email"
	PurposeRecoverySMS    Purpose = "recovery-sms"
	PurposeStepUp         Purpose = "step-up"
)

// IsValid reports whether the purpose is one of the known flows.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeRegistration, PurposeAuthentication, PurposeRecoveryEmail, PurposeRecoverySMS, PurposeStepUp:
		return true
	}
	return false
}

var (
	// ErrExpired is returned when verifying a code past its deadline.
	ErrExpired = errors.New("one-time code expired")
	// ErrAttemptsExceeded is returned once the attempt budget is spent.
	// The code stays dead even for the correct value.
	ErrAttemptsExceeded = errors.New("one-time code attempts exceeded")
	// ErrMismatch is returned when the candidate does not match.
	ErrMismatch = errors.New("one-time code mismatch")
	// ErrConsumed is returned when verifying an already-consumed code.
	ErrConsumed = errors.New("one-time code already used")
)

const saltBytes = 16

// GenerateCode produces a random numeric code of the given length.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive")
	}
	digits := make([]byte, length)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func hashCode(salt, code string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// Code is a short-lived numeric secret delivered out of band. Only the
// salted hash is stored; the plaintext exists in memory just long enough to
// hand to the notification dispatcher.
type Code struct {
	id          uint
	sid         string // external API identifier (otp_xxx)
	userID      *uint  // nil when the target does not map to a known user
	target      string // E.164 phone number or email address
	channel     Channel
	purpose     Purpose
	salt        string
	codeHash    string
	attempts    int
	maxAttempts int
	verified    bool
	consumedAt  *time.Time
	createdAt   time.Time
	expiresAt   time.Time
}

// NewCode creates a code record from a freshly generated plaintext.
func NewCode(
	userID *uint,
	target string,
	channel Channel,
	purpose Purpose,
	plaintext string,
	maxAttempts int,
	ttl time.Duration,
	sidGenerator func() (string, error),
	now time.Time,
) (*Code, error) {
	if target == "" {
		return nil, fmt.Errorf("target is required")
	}
	if !channel.IsValid() {
		return nil, fmt.Errorf("invalid channel: %s", channel)
	}
	if !purpose.IsValid() {
		return nil, fmt.Errorf("invalid purpose: %s", purpose)
	}
	if plaintext == "" {
		return nil, fmt.Errorf("code plaintext is required")
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("code TTL must be positive")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	rawSalt := make([]byte, saltBytes)
	if _, err := rand.Read(rawSalt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(rawSalt)

	return &Code{
		sid:         sid,
		userID:      userID,
		target:      target,
		channel:     channel,
		purpose:     purpose,
		salt:        salt,
		codeHash:    hashCode(salt, plaintext),
		maxAttempts: maxAttempts,
		createdAt:   now,
		expiresAt:   now.Add(ttl),
	}, nil
}

// ReconstructCode reconstructs a code from persistence
func ReconstructCode(
	id uint,
	sid string,
	userID *uint,
	target string,
	channel Channel,
	purpose Purpose,
	salt string,
	codeHash string,
	attempts int,
	maxAttempts int,
	verified bool,
	consumedAt *time.Time,
	createdAt time.Time,
	expiresAt time.Time,
) (*Code, error) {
	if id == 0 {
		return nil, fmt.Errorf("code ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("code SID is required")
	}

	return &Code{
		id:          id,
		sid:         sid,
		userID:      userID,
		target:      target,
		channel:     channel,
		purpose:     purpose,
		salt:        salt,
		codeHash:    codeHash,
		attempts:    attempts,
		maxAttempts: maxAttempts,
		verified:    verified,
		consumedAt:  consumedAt,
		createdAt:   createdAt,
		expiresAt:   expiresAt,
	}, nil
}

// ID returns the internal ID
func (c *Code) ID() uint {
	return c.id
}

// SID returns the external SID (otp_xxx)
func (c *Code) SID() string {
	return c.sid
}

// UserID returns the resolved user, if any
func (c *Code) UserID() *uint {
	return c.userID
}

// Target returns the delivery target
func (c *Code) Target() string {
	return c.target
}

// Channel returns the delivery channel
func (c *Code) Channel() Channel {
	return c.channel
}

// Purpose returns the issuing flow
func (c *Code) Purpose() Purpose {
	return c.purpose
}

// Salt returns the per-code salt
func (c *Code) Salt() string {
	return c.salt
}

// CodeHash returns the salted hash of the code
func (c *Code) CodeHash() string {
	return c.codeHash
}

// Attempts returns how many wrong candidates were presented
func (c *Code) Attempts() int {
	return c.attempts
}

// MaxAttempts returns the attempt budget
func (c *Code) MaxAttempts() int {
	return c.maxAttempts
}

// Verified reports whether the code was successfully consumed
func (c *Code) Verified() bool {
	return c.verified
}

// ConsumedAt returns when the code was consumed
func (c *Code) ConsumedAt() *time.Time {
	return c.consumedAt
}

// CreatedAt returns when the code was issued
func (c *Code) CreatedAt() time.Time {
	return c.createdAt
}

// ExpiresAt returns the code deadline
func (c *Code) ExpiresAt() time.Time {
	return c.expiresAt
}

// IsExpired reports whether the code deadline has passed.
func (c *Code) IsExpired(now time.Time) bool {
	return !now.Before(c.expiresAt)
}

// IsActive reports whether the code can still be verified: not consumed,
// not expired, attempts remaining.
func (c *Code) IsActive(now time.Time) bool {
	return !c.verified && c.consumedAt == nil && !c.IsExpired(now) && c.attempts < c.maxAttempts
}

// Matches compares the candidate against the stored hash in constant time.
func (c *Code) Matches(candidate string) bool {
	candidateHash := hashCode(c.salt, candidate)
	return hmac.Equal([]byte(candidateHash), []byte(c.codeHash))
}

// CheckCandidate runs the full verification decision for one candidate.
// Consumed, expired, and exhausted codes fail regardless of the candidate
// value; a mismatch costs one attempt.
func (c *Code) CheckCandidate(candidate string, now time.Time) error {
	if c.verified || c.consumedAt != nil {
		return ErrConsumed
	}
	if c.IsExpired(now) {
		return ErrExpired
	}
	if c.attempts >= c.maxAttempts {
		return ErrAttemptsExceeded
	}
	if !c.Matches(candidate) {
		c.attempts++
		return ErrMismatch
	}
	c.verified = true
	c.consumedAt = &now
	return nil
}

// SetID sets the internal ID (only for persistence layer use)
func (c *Code) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("code ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("code ID cannot be zero")
	}
	c.id = id
	return nil
}
