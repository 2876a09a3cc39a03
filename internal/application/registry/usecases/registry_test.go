package usecases

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type memMethodRepo struct {
	mu      sync.Mutex
	nextID  uint
	methods []*authmethod.Method
}

func (r *memMethodRepo) Create(ctx context.Context, m *authmethod.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if err := m.SetID(r.nextID); err != nil {
		return err
	}
	r.methods = append(r.methods, m)
	return nil
}

func (r *memMethodRepo) Update(ctx context.Context, m *authmethod.Method) error {
	return nil
}

func (r *memMethodRepo) FindBySID(ctx context.Context, sid string) (*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods {
		if m.SID() == sid {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMethodRepo) FindByUserID(ctx context.Context, userID uint) ([]*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authmethod.Method
	for _, m := range r.methods {
		if m.UserID() == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMethodRepo) FindByUserIDAndVariant(ctx context.Context, userID uint, variant authmethod.Variant) ([]*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authmethod.Method
	for _, m := range r.methods {
		if m.UserID() == userID && m.Variant() == variant {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMethodRepo) FindByCredentialID(ctx context.Context, credentialID []byte) (*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods {
		p := m.Payload().Passkey
		if p != nil && string(p.CredentialID) == string(credentialID) {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMethodRepo) ExistsByUserVariantTarget(ctx context.Context, userID uint, variant authmethod.Variant, targetKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods {
		if m.UserID() == userID && m.Variant() == variant && m.TargetKey() == targetKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMethodRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.methods {
		if m.ID() == id {
			r.methods = append(r.methods[:i], r.methods[i+1:]...)
			return nil
		}
	}
	return nil
}

func registryFixture() (*memMethodRepo, clock.Clock, logger.Interface) {
	repo := &memMethodRepo{}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
	return repo, clk, log
}

func smsCommand(userID uint, phone string) RegisterMethodCommand {
	return RegisterMethodCommand{
		UserID:      userID,
		Variant:     authmethod.VariantSMSOTP,
		DisplayName: "My phone",
		Payload:     authmethod.Payload{SMSOTP: &authmethod.SMSOTPPayload{PhoneNumber: phone}},
	}
}

func TestRegisterMethod(t *testing.T) {
	repo, clk, log := registryFixture()
	uc := NewRegisterMethodUseCase(repo, clk, log)

	res, err := uc.Execute(context.Background(), smsCommand(1, "+15551234567"))
	require.NoError(t, err)
	assert.Equal(t, "SMS_OTP", res.Method.Variant)
	assert.True(t, res.Method.Enabled)
	assert.False(t, res.Method.Verified)
	assert.Contains(t, res.Method.Target, "67")
	assert.NotContains(t, res.Method.Target, "+15551234")
}

func TestRegisterMethod_DuplicateTarget(t *testing.T) {
	repo, clk, log := registryFixture()
	uc := NewRegisterMethodUseCase(repo, clk, log)
	ctx := context.Background()

	_, err := uc.Execute(ctx, smsCommand(1, "+15551234567"))
	require.NoError(t, err)

	_, err = uc.Execute(ctx, smsCommand(1, "+15551234567"))
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))

	// A different number for the same user is fine
	_, err = uc.Execute(ctx, smsCommand(1, "+15559876543"))
	assert.NoError(t, err)

	// The same number for a different user is fine
	_, err = uc.Execute(ctx, smsCommand(2, "+15551234567"))
	assert.NoError(t, err)
}

func TestListMethods_EnabledOnly(t *testing.T) {
	repo, clk, log := registryFixture()
	register := NewRegisterMethodUseCase(repo, clk, log)
	toggle := NewSetMethodEnabledUseCase(repo, clk, log)
	list := NewListMethodsUseCase(repo, log)
	ctx := context.Background()

	first, err := register.Execute(ctx, smsCommand(1, "+15551234567"))
	require.NoError(t, err)
	_, err = register.Execute(ctx, smsCommand(1, "+15559876543"))
	require.NoError(t, err)

	_, err = toggle.Execute(ctx, SetMethodEnabledCommand{UserID: 1, MethodSID: first.Method.ID, Enabled: false})
	require.NoError(t, err)

	all, err := list.Execute(ctx, ListMethodsQuery{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	enabled, err := list.Execute(ctx, ListMethodsQuery{UserID: 1, EnabledOnly: true})
	require.NoError(t, err)
	assert.Len(t, enabled, 1)
}

func TestSetMethodEnabled_WrongUser(t *testing.T) {
	repo, clk, log := registryFixture()
	register := NewRegisterMethodUseCase(repo, clk, log)
	toggle := NewSetMethodEnabledUseCase(repo, clk, log)
	ctx := context.Background()

	res, err := register.Execute(ctx, smsCommand(1, "+15551234567"))
	require.NoError(t, err)

	// Another user cannot touch the method
	_, err = toggle.Execute(ctx, SetMethodEnabledCommand{UserID: 2, MethodSID: res.Method.ID, Enabled: false})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestMarkMethodVerified(t *testing.T) {
	repo, clk, log := registryFixture()
	register := NewRegisterMethodUseCase(repo, clk, log)
	verify := NewMarkMethodVerifiedUseCase(repo, clk, log)
	ctx := context.Background()

	res, err := register.Execute(ctx, smsCommand(1, "+15551234567"))
	require.NoError(t, err)
	require.False(t, res.Method.Configured)

	dto, err := verify.Execute(ctx, MarkMethodVerifiedCommand{UserID: 1, MethodSID: res.Method.ID})
	require.NoError(t, err)
	assert.True(t, dto.Verified)
	assert.True(t, dto.Configured)
}
