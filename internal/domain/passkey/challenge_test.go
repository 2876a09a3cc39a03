package passkey

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSID() (string, error) {
	return "pc_test12345", nil
}

func TestNewChallenge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := uint(7)

	c, err := NewChallenge(PurposeAuthentication, &userID, "sess-1", 5*time.Minute, testSID, now)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(c.Value())
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, now.Add(5*time.Minute), c.ExpiresAt())
	assert.False(t, c.Used())
}

func TestNewChallenge_Uniqueness(t *testing.T) {
	now := time.Now().UTC()

	c1, err := NewChallenge(PurposeRegistration, nil, "", time.Minute, testSID, now)
	require.NoError(t, err)
	c2, err := NewChallenge(PurposeRegistration, nil, "", time.Minute, testSID, now)
	require.NoError(t, err)

	assert.NotEqual(t, c1.Value(), c2.Value())
}

func TestChallenge_Consume(t *testing.T) {
	now := time.Now().UTC()

	c, err := NewChallenge(PurposeAuthentication, nil, "", 5*time.Minute, testSID, now)
	require.NoError(t, err)

	require.NoError(t, c.Consume(now.Add(time.Minute)))
	assert.True(t, c.Used())

	// Second consume must fail regardless of timing
	err = c.Consume(now.Add(time.Minute))
	assert.Error(t, err)
}

func TestChallenge_ConsumeExpired(t *testing.T) {
	now := time.Now().UTC()

	c, err := NewChallenge(PurposeAuthentication, nil, "", 5*time.Minute, testSID, now)
	require.NoError(t, err)

	// Exactly at the deadline counts as expired
	assert.True(t, c.IsExpired(now.Add(5*time.Minute)))
	assert.Error(t, c.Consume(now.Add(5*time.Minute)))

	assert.False(t, c.IsExpired(now.Add(5*time.Minute-time.Second)))
}

func TestChallenge_InvalidPurpose(t *testing.T) {
	_, err := NewChallenge(Purpose("attestation"), nil, "", time.Minute, testSID, time.Now().UTC())
	assert.Error(t, err)
}
