package authmethod

import (
	"fmt"
	"time"
)

// Method represents one way a user can authenticate: a TOTP secret, a
// passkey credential, an OTP delivery target, or a push subscription.
type Method struct {
	id             uint
	sid            string // external API identifier (am_xxx)
	userID         uint
	variant        Variant
	displayName    string
	enabled        bool
	verified       bool
	payload        Payload
	lastUsedAt     *time.Time
	lastVerifiedAt *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewMethod creates a new authentication method. New methods start enabled
// but unverified; they do not count as configured until verified.
func NewMethod(
	userID uint,
	variant Variant,
	displayName string,
	payload Payload,
	sidGenerator func() (string, error),
	now time.Time,
) (*Method, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !variant.IsValid() {
		return nil, fmt.Errorf("invalid variant: %s", variant)
	}
	if err := payload.Validate(variant); err != nil {
		return nil, err
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	return &Method{
		sid:         sid,
		userID:      userID,
		variant:     variant,
		displayName: displayName,
		enabled:     true,
		verified:    false,
		payload:     payload,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructMethod reconstructs an authentication method from persistence
func ReconstructMethod(
	id uint,
	sid string,
	userID uint,
	variant Variant,
	displayName string,
	enabled bool,
	verified bool,
	payload Payload,
	lastUsedAt *time.Time,
	lastVerifiedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) (*Method, error) {
	if id == 0 {
		return nil, fmt.Errorf("method ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("method SID is required")
	}

	return &Method{
		id:             id,
		sid:            sid,
		userID:         userID,
		variant:        variant,
		displayName:    displayName,
		enabled:        enabled,
		verified:       verified,
		payload:        payload,
		lastUsedAt:     lastUsedAt,
		lastVerifiedAt: lastVerifiedAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// ID returns the internal ID
func (m *Method) ID() uint {
	return m.id
}

// SID returns the external SID (am_xxx)
func (m *Method) SID() string {
	return m.sid
}

// UserID returns the owning user ID
func (m *Method) UserID() uint {
	return m.userID
}

// Variant returns the method variant
func (m *Method) Variant() Variant {
	return m.variant
}

// DisplayName returns the user-facing name
func (m *Method) DisplayName() string {
	return m.displayName
}

// Enabled reports whether the method is enabled
func (m *Method) Enabled() bool {
	return m.enabled
}

// Verified reports whether ownership of the method has been proven
func (m *Method) Verified() bool {
	return m.verified
}

// Payload returns the variant-specific configuration
func (m *Method) Payload() Payload {
	return m.payload
}

// LastUsedAt returns when the method last completed an authentication
func (m *Method) LastUsedAt() *time.Time {
	return m.lastUsedAt
}

// LastVerifiedAt returns when the method was verified
func (m *Method) LastVerifiedAt() *time.Time {
	return m.lastVerifiedAt
}

// CreatedAt returns when the method was registered
func (m *Method) CreatedAt() time.Time {
	return m.createdAt
}

// UpdatedAt returns when the method was last modified
func (m *Method) UpdatedAt() time.Time {
	return m.updatedAt
}

// TargetKey returns the uniqueness key within (user, variant)
func (m *Method) TargetKey() string {
	return m.payload.TargetKey(m.variant)
}

// IsConfigured reports whether the method is usable for authentication:
// enabled, verified, and carrying a complete payload for its variant.
func (m *Method) IsConfigured() bool {
	if !m.enabled || !m.verified {
		return false
	}
	return m.payload.Validate(m.variant) == nil
}

// Enable re-enables a disabled method
func (m *Method) Enable(now time.Time) {
	m.enabled = true
	m.updatedAt = now
}

// Disable soft-disables the method. The record is kept so the method can be
// re-enabled without re-enrollment.
func (m *Method) Disable(now time.Time) {
	m.enabled = false
	m.updatedAt = now
}

// MarkVerified records that ownership of the method has been proven
func (m *Method) MarkVerified(now time.Time) {
	m.verified = true
	m.lastVerifiedAt = &now
	m.updatedAt = now
}

// MarkUsed records a successful authentication with this method
func (m *Method) MarkUsed(now time.Time) {
	m.lastUsedAt = &now
	m.updatedAt = now
}

// UpdateSignCount updates the passkey signature counter after a successful
// assertion. A counter that fails to increase may indicate a cloned
// credential, so the update is rejected.
func (m *Method) UpdateSignCount(newCount uint32, now time.Time) error {
	if m.variant != VariantPasskey || m.payload.Passkey == nil {
		return fmt.Errorf("method %s is not a passkey", m.sid)
	}
	current := m.payload.Passkey.SignCount
	if current > 0 && newCount <= current {
		return fmt.Errorf("sign count not increasing: got %d, expected > %d (possible cloned credential)", newCount, current)
	}
	m.payload.Passkey.SignCount = newCount
	m.updatedAt = now
	return nil
}

// RecordPushFailure increments the push delivery failure counter. When the
// counter reaches maxFailures the method is disabled and true is returned.
func (m *Method) RecordPushFailure(maxFailures int, now time.Time) (disabled bool, err error) {
	if m.variant != VariantPush || m.payload.Push == nil {
		return false, fmt.Errorf("method %s is not a push subscription", m.sid)
	}
	m.payload.Push.FailedAttempts++
	m.updatedAt = now
	if m.payload.Push.FailedAttempts >= maxFailures {
		m.enabled = false
		return true, nil
	}
	return false, nil
}

// ResetPushFailures clears the push delivery failure counter after a
// successful delivery.
func (m *Method) ResetPushFailures(now time.Time) error {
	if m.variant != VariantPush || m.payload.Push == nil {
		return fmt.Errorf("method %s is not a push subscription", m.sid)
	}
	if m.payload.Push.FailedAttempts != 0 {
		m.payload.Push.FailedAttempts = 0
		m.updatedAt = now
	}
	return nil
}

// SetID sets the internal ID (only for persistence layer use)
func (m *Method) SetID(id uint) error {
	if m.id != 0 {
		return fmt.Errorf("method ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("method ID cannot be zero")
	}
	m.id = id
	return nil
}
