package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSID() (string, error) {
	return "otp_test1234", nil
}

func newCode(t *testing.T, plaintext string, now time.Time) *Code {
	t.Helper()
	c, err := NewCode(nil, "+15551234567", ChannelSMS, PurposeAuthentication, plaintext, 5, 5*time.Minute, testSID, now)
	require.NoError(t, err)
	return c
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestCode_HashAtRest(t *testing.T) {
	now := time.Now().UTC()
	c := newCode(t, "123456", now)

	// The plaintext never appears in the stored fields
	assert.NotContains(t, c.CodeHash(), "123456")
	assert.NotEmpty(t, c.Salt())
	assert.True(t, c.Matches("123456"))
	assert.False(t, c.Matches("123457"))
}

func TestCode_SaltedHashesDiffer(t *testing.T) {
	now := time.Now().UTC()
	c1 := newCode(t, "123456", now)
	c2 := newCode(t, "123456", now)

	assert.NotEqual(t, c1.CodeHash(), c2.CodeHash())
}

func TestCode_RoundTripSingleUse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newCode(t, "482913", now)

	require.NoError(t, c.CheckCandidate("482913", now.Add(time.Minute)))
	assert.True(t, c.Verified())

	// Same code again is a replay
	err := c.CheckCandidate("482913", now.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestCode_MismatchCostsAttempt(t *testing.T) {
	now := time.Now().UTC()
	c := newCode(t, "482913", now)

	assert.ErrorIs(t, c.CheckCandidate("000000", now), ErrMismatch)
	assert.Equal(t, 1, c.Attempts())
}

func TestCode_AttemptsExhaustedNeverVerifies(t *testing.T) {
	now := time.Now().UTC()
	c := newCode(t, "482913", now)

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, c.CheckCandidate("000000", now), ErrMismatch)
	}

	// The correct value is dead once the budget is spent
	err := c.CheckCandidate("482913", now)
	assert.ErrorIs(t, err, ErrAttemptsExceeded)
	assert.False(t, c.Verified())
}

func TestCode_Expired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newCode(t, "482913", now)

	err := c.CheckCandidate("482913", now.Add(5*time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
	assert.False(t, c.Verified())
}

func TestCode_IsActive(t *testing.T) {
	now := time.Now().UTC()
	c := newCode(t, "482913", now)

	assert.True(t, c.IsActive(now))
	assert.False(t, c.IsActive(now.Add(time.Hour)))

	require.NoError(t, c.CheckCandidate("482913", now))
	assert.False(t, c.IsActive(now))
}
