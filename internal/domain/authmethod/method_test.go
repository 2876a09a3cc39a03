package authmethod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSID() (string, error) {
	return "am_test12345", nil
}

func smsPayload(phone string) Payload {
	return Payload{SMSOTP: &SMSOTPPayload{PhoneNumber: phone, CountryCode: "US"}}
}

func pushPayload() Payload {
	return Payload{Push: &PushPayload{
		Endpoint:   "https://push.example.com/sub/abc",
		P256DH:     "BNcRd...",
		AuthSecret: "tBHI...",
		DeviceName: "Pixel 9",
	}}
}

func TestNewMethod(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m, err := NewMethod(42, VariantSMSOTP, "My phone", smsPayload("+15551234567"), testSID, now)
	require.NoError(t, err)

	assert.Equal(t, uint(42), m.UserID())
	assert.Equal(t, VariantSMSOTP, m.Variant())
	assert.True(t, m.Enabled())
	assert.False(t, m.Verified())
	assert.Equal(t, "+15551234567", m.TargetKey())
}

func TestNewMethod_Validation(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		userID  uint
		variant Variant
		payload Payload
	}{
		{"zero user", 0, VariantSMSOTP, smsPayload("+15551234567")},
		{"unknown variant", 1, Variant("FAX"), Payload{}},
		{"missing sms payload", 1, VariantSMSOTP, Payload{}},
		{"empty phone", 1, VariantSMSOTP, smsPayload("")},
		{"totp without secret", 1, VariantTOTP, Payload{TOTP: &TOTPPayload{}}},
		{"passkey without key", 1, VariantPasskey, Payload{Passkey: &PasskeyPayload{CredentialID: []byte{1}}}},
		{"push without keys", 1, VariantPush, Payload{Push: &PushPayload{Endpoint: "https://x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMethod(tt.userID, tt.variant, "", tt.payload, testSID, now)
			assert.Error(t, err)
		})
	}
}

func TestMethod_IsConfigured(t *testing.T) {
	now := time.Now().UTC()

	m, err := NewMethod(1, VariantSMSOTP, "", smsPayload("+15551234567"), testSID, now)
	require.NoError(t, err)

	// New methods are unverified, so not configured yet
	assert.False(t, m.IsConfigured())

	m.MarkVerified(now)
	assert.True(t, m.IsConfigured())

	m.Disable(now)
	assert.False(t, m.IsConfigured())

	m.Enable(now)
	assert.True(t, m.IsConfigured())
}

func TestMethod_UpdateSignCount(t *testing.T) {
	now := time.Now().UTC()
	payload := Payload{Passkey: &PasskeyPayload{
		CredentialID: []byte("cred-1"),
		PublicKey:    []byte("cose-key"),
		SignCount:    10,
	}}

	m, err := NewMethod(1, VariantPasskey, "YubiKey", payload, testSID, now)
	require.NoError(t, err)

	require.NoError(t, m.UpdateSignCount(11, now))
	assert.Equal(t, uint32(11), m.Payload().Passkey.SignCount)

	// A non-increasing counter indicates a possible cloned credential
	err = m.UpdateSignCount(11, now)
	assert.Error(t, err)
	err = m.UpdateSignCount(5, now)
	assert.Error(t, err)
}

func TestMethod_RecordPushFailure(t *testing.T) {
	now := time.Now().UTC()

	m, err := NewMethod(1, VariantPush, "Pixel 9", pushPayload(), testSID, now)
	require.NoError(t, err)
	m.MarkVerified(now)

	for i := 0; i < 4; i++ {
		disabled, err := m.RecordPushFailure(5, now)
		require.NoError(t, err)
		assert.False(t, disabled)
		assert.True(t, m.Enabled())
	}

	disabled, err := m.RecordPushFailure(5, now)
	require.NoError(t, err)
	assert.True(t, disabled)
	assert.False(t, m.Enabled())
}

func TestMethod_ResetPushFailures(t *testing.T) {
	now := time.Now().UTC()

	m, err := NewMethod(1, VariantPush, "", pushPayload(), testSID, now)
	require.NoError(t, err)

	_, err = m.RecordPushFailure(5, now)
	require.NoError(t, err)
	require.Equal(t, 1, m.Payload().Push.FailedAttempts)

	require.NoError(t, m.ResetPushFailures(now))
	assert.Equal(t, 0, m.Payload().Push.FailedAttempts)
}

func TestVariant_CountsTowardMFA(t *testing.T) {
	assert.True(t, VariantTOTP.CountsTowardMFA())
	assert.True(t, VariantPasskey.CountsTowardMFA())
	assert.True(t, VariantSMSOTP.CountsTowardMFA())
	assert.False(t, VariantEmailOTP.CountsTowardMFA())
	assert.False(t, VariantPush.CountsTowardMFA())
}

func TestPayload_RoundTrip(t *testing.T) {
	payload := Payload{Passkey: &PasskeyPayload{
		CredentialID: []byte{1, 2, 3},
		PublicKey:    []byte{4, 5, 6},
		SignCount:    7,
		Transports:   []string{"internal", "hybrid"},
	}}

	data, err := MarshalPayload(payload)
	require.NoError(t, err)

	got, err := UnmarshalPayload(data)
	require.NoError(t, err)
	require.NotNil(t, got.Passkey)
	assert.Equal(t, payload.Passkey.CredentialID, got.Passkey.CredentialID)
	assert.Equal(t, uint32(7), got.Passkey.SignCount)
	assert.Nil(t, got.SMSOTP)
}
