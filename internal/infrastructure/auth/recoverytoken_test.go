package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/config"
)

func newTestService(clk clock.Clock) *RecoveryTokenService {
	return NewRecoveryTokenService(
		config.JWTConfig{Secret: "test-secret", Issuer: "veridian-test"},
		config.RecoveryConfig{TokenExpiryMinutes: 15},
		clk,
	)
}

func TestRecoveryTokenService_IssueAndVerify(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(clk)

	token, expiresAt, err := svc.Issue(42, "rr_abc123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, clk.Now().Add(15*time.Minute), expiresAt)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "rr_abc123", claims.RequestSID)
	assert.Equal(t, "account:recover", claims.Scope)
	assert.Equal(t, "recovery", claims.TokenType)
	assert.Equal(t, "veridian-test", claims.Issuer)
}

func TestRecoveryTokenService_RejectsExpired(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(clk)

	token, _, err := svc.Issue(42, "rr_abc123")
	require.NoError(t, err)

	clk.Advance(16 * time.Minute)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestRecoveryTokenService_RejectsWrongSecret(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(clk)

	token, _, err := svc.Issue(42, "rr_abc123")
	require.NoError(t, err)

	other := NewRecoveryTokenService(
		config.JWTConfig{Secret: "other-secret", Issuer: "veridian-test"},
		config.RecoveryConfig{TokenExpiryMinutes: 15},
		clk,
	)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestRecoveryTokenService_DefaultExpiry(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewRecoveryTokenService(
		config.JWTConfig{Secret: "test-secret"},
		config.RecoveryConfig{},
		clk,
	)

	_, expiresAt, err := svc.Issue(1, "rr_x")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(15*time.Minute), expiresAt)
}
