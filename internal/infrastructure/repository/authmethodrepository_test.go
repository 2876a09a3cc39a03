package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
)

func TestAuthMethodRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthMethodRepository(db, testLogger())
	ctx := context.Background()

	method, err := authmethod.NewMethod(1, authmethod.VariantPasskey, "MacBook",
		authmethod.Payload{Passkey: &authmethod.PasskeyPayload{
			CredentialID: []byte("cred-abc"),
			PublicKey:    []byte("cose-key"),
			SignCount:    7,
			Transports:   []string{"internal"},
		}},
		testSID("am_pk1"), testNow)
	require.NoError(t, err)
	method.MarkVerified(testNow)
	require.NoError(t, repo.Create(ctx, method))

	found, err := repo.FindBySID(ctx, "am_pk1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, authmethod.VariantPasskey, found.Variant())
	assert.Equal(t, []byte("cred-abc"), found.Payload().Passkey.CredentialID)
	assert.Equal(t, uint32(7), found.Payload().Passkey.SignCount)
	assert.True(t, found.IsConfigured())
}

func TestAuthMethodRepository_FindByCredentialID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthMethodRepository(db, testLogger())
	ctx := context.Background()

	method, err := authmethod.NewMethod(1, authmethod.VariantPasskey, "MacBook",
		authmethod.Payload{Passkey: &authmethod.PasskeyPayload{
			CredentialID: []byte("cred-find"),
			PublicKey:    []byte("cose-key"),
		}},
		testSID("am_pk2"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, method))

	found, err := repo.FindByCredentialID(ctx, []byte("cred-find"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "am_pk2", found.SID())

	missing, err := repo.FindByCredentialID(ctx, []byte("cred-unknown"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAuthMethodRepository_ExistsByUserVariantTarget(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthMethodRepository(db, testLogger())
	ctx := context.Background()

	method, err := authmethod.NewMethod(1, authmethod.VariantSMSOTP, "Phone",
		authmethod.Payload{SMSOTP: &authmethod.SMSOTPPayload{PhoneNumber: "+15551234567"}},
		testSID("am_sms1"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, method))

	exists, err := repo.ExistsByUserVariantTarget(ctx, 1, authmethod.VariantSMSOTP, "+15551234567")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUserVariantTarget(ctx, 1, authmethod.VariantSMSOTP, "+15550000000")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByUserVariantTarget(ctx, 2, authmethod.VariantSMSOTP, "+15551234567")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuthMethodRepository_UpdatePersistsPayload(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthMethodRepository(db, testLogger())
	ctx := context.Background()

	method, err := authmethod.NewMethod(1, authmethod.VariantPasskey, "MacBook",
		authmethod.Payload{Passkey: &authmethod.PasskeyPayload{
			CredentialID: []byte("cred-upd"),
			PublicKey:    []byte("cose-key"),
			SignCount:    3,
		}},
		testSID("am_pk3"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, method))

	require.NoError(t, method.UpdateSignCount(9, testNow))
	require.NoError(t, repo.Update(ctx, method))

	found, err := repo.FindBySID(ctx, "am_pk3")
	require.NoError(t, err)
	assert.Equal(t, uint32(9), found.Payload().Passkey.SignCount)
}
