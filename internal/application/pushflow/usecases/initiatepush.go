package usecases

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/goroutine"
	"github.com/veridian-id/veridian/internal/shared/id"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type InitiatePushCommand struct {
	UserID      uint
	Purpose     pushauth.Purpose
	RecoverySID string
	IP          string
	UserAgent   string
	Location    string
}

type InitiatePushResult struct {
	RequestID   string
	ExpiresAt   time.Time
	DeviceCount int
}

type InitiatePushUseCase struct {
	requestRepo pushauth.Repository
	methodRepo  authmethod.Repository
	sender      PushSender
	config      Config
	clock       clock.Clock
	logger      logger.Interface
}

func NewInitiatePushUseCase(
	requestRepo pushauth.Repository,
	methodRepo authmethod.Repository,
	sender PushSender,
	config Config,
	clk clock.Clock,
	logger logger.Interface,
) *InitiatePushUseCase {
	return &InitiatePushUseCase{
		requestRepo: requestRepo,
		methodRepo:  methodRepo,
		sender:      sender,
		config:      config,
		clock:       clk,
		logger:      logger,
	}
}

func (uc *InitiatePushUseCase) Execute(ctx context.Context, cmd InitiatePushCommand) (*InitiatePushResult, error) {
	if !cmd.Purpose.IsValid() {
		return nil, errors.NewValidationError("invalid push purpose")
	}

	now := uc.clock.Now()

	devices, err := uc.configuredDevices(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, errors.NewNotFoundError("no push devices enrolled")
	}

	if err := uc.enforcePendingCap(ctx, cmd.UserID, now); err != nil {
		return nil, err
	}

	request, err := pushauth.NewRequest(
		cmd.UserID,
		cmd.Purpose,
		pushauth.ClientContext{IP: cmd.IP, UserAgent: cmd.UserAgent, Location: cmd.Location},
		cmd.RecoverySID,
		uc.config.RequestTTL,
		id.NewPushRequestID,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}

	if err := uc.requestRepo.Create(ctx, request); err != nil {
		uc.logger.Errorw("failed to store push request", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to store push request: %w", err)
	}

	notice := AuthNotice{
		RequestID: request.SID(),
		Challenge: request.Challenge(),
		Purpose:   string(cmd.Purpose),
		IP:        cmd.IP,
		UserAgent: cmd.UserAgent,
		Location:  cmd.Location,
		ExpiresAt: request.ExpiresAt(),
	}

	// Dispatch never gates the request; devices that fail often enough get
	// disabled by the failure counter
	for _, device := range devices {
		device := device
		goroutine.SafeGo(uc.logger, "push-dispatch", func() {
			uc.dispatch(context.Background(), request.ID(), device, notice)
		})
	}

	uc.logger.Infow("push authentication initiated",
		"request_id", request.SID(),
		"user_id", cmd.UserID,
		"purpose", cmd.Purpose,
		"devices", len(devices),
	)

	return &InitiatePushResult{
		RequestID:   request.SID(),
		ExpiresAt:   request.ExpiresAt(),
		DeviceCount: len(devices),
	}, nil
}

func (uc *InitiatePushUseCase) configuredDevices(ctx context.Context, userID uint) ([]*authmethod.Method, error) {
	methods, err := uc.methodRepo.FindByUserIDAndVariant(ctx, userID, authmethod.VariantPush)
	if err != nil {
		uc.logger.Errorw("failed to list push methods", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list push methods: %w", err)
	}
	devices := methods[:0]
	for _, m := range methods {
		if m.IsConfigured() {
			devices = append(devices, m)
		}
	}
	return devices, nil
}

// enforcePendingCap cancels the oldest pending requests so at most
// MaxPending-1 remain before the new one is created.
func (uc *InitiatePushUseCase) enforcePendingCap(ctx context.Context, userID uint, now time.Time) error {
	pending, err := uc.requestRepo.FindPendingByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list pending push requests", "error", err, "user_id", userID)
		return fmt.Errorf("failed to list pending push requests: %w", err)
	}

	live := pending[:0]
	for _, r := range pending {
		if !r.IsExpired(now) {
			live = append(live, r)
		}
	}
	if len(live) < uc.config.MaxPending {
		return nil
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].CreatedAt().Before(live[j].CreatedAt())
	})
	excess := len(live) - uc.config.MaxPending + 1
	for _, r := range live[:excess] {
		if err := r.Cancel(now); err != nil {
			continue
		}
		if _, err := uc.requestRepo.UpdateStatus(ctx, r); err != nil {
			uc.logger.Warnw("failed to cancel pending push request", "error", err, "request_id", r.SID())
		}
	}
	return nil
}

func (uc *InitiatePushUseCase) dispatch(ctx context.Context, requestID uint, device *authmethod.Method, notice AuthNotice) {
	payload := device.Payload().Push
	sub := PushSubscription{
		Endpoint:   payload.Endpoint,
		P256DH:     payload.P256DH,
		AuthSecret: payload.AuthSecret,
	}

	now := uc.clock.Now()
	if err := uc.sender.SendAuthNotice(ctx, sub, notice); err != nil {
		uc.logger.Warnw("push delivery failed",
			"error", err,
			"method_id", device.SID(),
			"request_id", notice.RequestID,
		)
		disabled, ferr := device.RecordPushFailure(uc.config.MaxDeviceFailures, now)
		if ferr == nil {
			if uerr := uc.methodRepo.Update(ctx, device); uerr != nil {
				uc.logger.Errorw("failed to record push failure", "error", uerr, "method_id", device.SID())
			}
			if disabled {
				uc.logger.Warnw("push device disabled after repeated failures", "method_id", device.SID())
			}
		}
		return
	}

	if err := device.ResetPushFailures(now); err == nil {
		if uerr := uc.methodRepo.Update(ctx, device); uerr != nil {
			uc.logger.Errorw("failed to reset push failures", "error", uerr, "method_id", device.SID())
		}
	}
	if err := uc.requestRepo.IncrementNotificationsSent(ctx, requestID, now); err != nil {
		uc.logger.Warnw("failed to count push notification", "error", err, "request_id", notice.RequestID)
	}
}
