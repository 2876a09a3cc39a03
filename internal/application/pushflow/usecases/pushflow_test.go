package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
)

type pushFixture struct {
	initiate *InitiatePushUseCase
	respond  *RespondPushUseCase
	poll     *PollPushUseCase
	cancel   *CancelPendingUseCase
	sweep    *SweepExpiredUseCase
	requests *memPushRepo
	methods  *memMethodRepo
	sender   *captureSender
	clk      *clock.Fake
	device   *authmethod.Method
}

func newPushFixture(t *testing.T) *pushFixture {
	t.Helper()
	requests := newMemPushRepo()
	methods := &memMethodRepo{}
	sender := &captureSender{}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := testLogger()
	cfg := DefaultConfig()

	device, err := authmethod.NewMethod(1, authmethod.VariantPush, "Pixel 9",
		authmethod.Payload{Push: &authmethod.PushPayload{
			Endpoint:   "https://push.example.com/sub/1",
			P256DH:     "p256dh-key",
			AuthSecret: "auth-secret",
			DeviceName: "Pixel 9",
		}},
		func() (string, error) { return "am_device1", nil },
		clk.Now(),
	)
	require.NoError(t, err)
	device.MarkVerified(clk.Now())
	require.NoError(t, methods.Create(context.Background(), device))

	return &pushFixture{
		initiate: NewInitiatePushUseCase(requests, methods, sender, cfg, clk, log),
		respond:  NewRespondPushUseCase(requests, clk, log),
		poll:     NewPollPushUseCase(requests, clk, log),
		cancel:   NewCancelPendingUseCase(requests, clk, log),
		sweep:    NewSweepExpiredUseCase(requests, clk, log),
		requests: requests,
		methods:  methods,
		sender:   sender,
		clk:      clk,
		device:   device,
	}
}

func (f *pushFixture) initiateAndWait(t *testing.T) (*InitiatePushResult, AuthNotice) {
	t.Helper()
	before := f.sender.count()
	res, err := f.initiate.Execute(context.Background(), InitiatePushCommand{
		UserID: 1, Purpose: pushauth.PurposeSignIn, IP: "203.0.113.9", UserAgent: "curl/8",
	})
	require.NoError(t, err)
	require.True(t, waitFor(func() bool { return f.sender.count() > before }), "push dispatch did not happen")
	notice, ok := f.sender.lastNotice()
	require.True(t, ok)
	return res, notice
}

func TestInitiatePush(t *testing.T) {
	f := newPushFixture(t)

	res, notice := f.initiateAndWait(t)
	assert.Equal(t, res.RequestID, notice.RequestID)
	assert.NotEmpty(t, notice.Challenge)
	assert.Equal(t, f.clk.Now().Add(90*time.Second), res.ExpiresAt)
	assert.Equal(t, 1, res.DeviceCount)

	assert.True(t, waitFor(func() bool { return f.requests.notificationsSent(res.RequestID) == 1 }))
}

func TestInitiatePush_NoDevices(t *testing.T) {
	f := newPushFixture(t)

	_, err := f.initiate.Execute(context.Background(), InitiatePushCommand{
		UserID: 2, Purpose: pushauth.PurposeSignIn,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestInitiatePush_PendingCap(t *testing.T) {
	f := newPushFixture(t)
	ctx := context.Background()

	var first *InitiatePushResult
	for i := 0; i < 3; i++ {
		res, _ := f.initiateAndWait(t)
		if i == 0 {
			first = res
		}
		f.clk.Advance(time.Second)
	}

	// The fourth request pushes the oldest one out
	_, _ = f.initiateAndWait(t)

	status, err := f.poll.Execute(ctx, PollPushQuery{RequestSID: first.RequestID})
	require.NoError(t, err)
	assert.Equal(t, string(pushauth.StatusCancelled), status.Status)

	pending, err := f.requests.FindPendingByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestRespondPush_ApproveThenConflict(t *testing.T) {
	f := newPushFixture(t)
	ctx := context.Background()

	res, notice := f.initiateAndWait(t)

	out, err := f.respond.Execute(ctx, RespondPushCommand{
		RequestSID: res.RequestID, Challenge: notice.Challenge, MethodSID: "am_device1", Approve: true,
	})
	require.NoError(t, err)
	assert.Equal(t, string(pushauth.StatusApproved), out.Status)

	// The losing deny gets a conflict and the outcome stands
	_, err = f.respond.Execute(ctx, RespondPushCommand{
		RequestSID: res.RequestID, Challenge: notice.Challenge, MethodSID: "am_device2", Approve: false,
	})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyUsedError(err))

	status, err := f.poll.Execute(ctx, PollPushQuery{RequestSID: res.RequestID})
	require.NoError(t, err)
	assert.Equal(t, string(pushauth.StatusApproved), status.Status)
}

func TestRespondPush_ExpiredWithCorrectToken(t *testing.T) {
	f := newPushFixture(t)
	ctx := context.Background()

	res, notice := f.initiateAndWait(t)

	// 91 seconds after initiation with a 90 second TTL
	f.clk.Advance(91 * time.Second)

	_, err := f.respond.Execute(ctx, RespondPushCommand{
		RequestSID: res.RequestID, Challenge: notice.Challenge, MethodSID: "am_device1", Approve: true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsExpiredError(err))

	status, err := f.poll.Execute(ctx, PollPushQuery{RequestSID: res.RequestID})
	require.NoError(t, err)
	assert.Equal(t, string(pushauth.StatusExpired), status.Status)
}

func TestRespondPush_WrongToken(t *testing.T) {
	f := newPushFixture(t)
	ctx := context.Background()

	res, _ := f.initiateAndWait(t)

	_, err := f.respond.Execute(ctx, RespondPushCommand{
		RequestSID: res.RequestID, Challenge: "forged-token", MethodSID: "am_device1", Approve: true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized))

	// The request stays answerable
	status, err := f.poll.Execute(ctx, PollPushQuery{RequestSID: res.RequestID})
	require.NoError(t, err)
	assert.Equal(t, string(pushauth.StatusPending), status.Status)
}

func TestCancelPending(t *testing.T) {
	f := newPushFixture(t)
	ctx := context.Background()

	f.initiateAndWait(t)
	f.clk.Advance(time.Second)
	f.initiateAndWait(t)

	res, err := f.cancel.Execute(ctx, CancelPendingCommand{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cancelled)

	pending, err := f.requests.FindPendingByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSweepExpired_Idempotent(t *testing.T) {
	f := newPushFixture(t)
	ctx := context.Background()

	f.initiateAndWait(t)
	f.clk.Advance(2 * time.Minute)

	expired, err := f.sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	expired, err = f.sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestInitiatePush_DeviceDisabledAfterFailures(t *testing.T) {
	f := newPushFixture(t)
	f.sender.fail = true
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.initiate.Execute(ctx, InitiatePushCommand{UserID: 1, Purpose: pushauth.PurposeSignIn})
		require.NoError(t, err)
		require.True(t, waitFor(func() bool {
			return f.device.Payload().Push.FailedAttempts > i
		}), "failure %d not recorded", i+1)
		f.clk.Advance(2 * time.Minute)
	}

	assert.False(t, f.device.Enabled())

	// With its only device disabled the user cannot start a push flow
	_, err := f.initiate.Execute(ctx, InitiatePushCommand{UserID: 1, Purpose: pushauth.PurposeSignIn})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}
