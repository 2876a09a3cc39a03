package usecases

import (
	"context"
	"fmt"
	"time"

	otpusecases "github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// Step names accepted by ResendCode.
const (
	StepEmail = "email"
	StepSMS   = "sms"
)

type ResendCodeCommand struct {
	RequestSID string
	Step       string
}

type ResendCodeResult struct {
	ExpiresAt       time.Time
	CooldownSeconds int
}

type ResendCodeUseCase struct {
	recoveryRepo recovery.Repository
	issueCode    *otpusecases.IssueCodeUseCase
	clock        clock.Clock
	logger       logger.Interface
}

func NewResendCodeUseCase(
	recoveryRepo recovery.Repository,
	issueCode *otpusecases.IssueCodeUseCase,
	clk clock.Clock,
	logger logger.Interface,
) *ResendCodeUseCase {
	return &ResendCodeUseCase{
		recoveryRepo: recoveryRepo,
		issueCode:    issueCode,
		clock:        clk,
		logger:       logger,
	}
}

// Execute reissues the code for the request's current step. The issuing
// engine still enforces its cooldown and daily cap; a fresh code resets the
// step's attempt counter.
func (uc *ResendCodeUseCase) Execute(ctx context.Context, cmd ResendCodeCommand) (*ResendCodeResult, error) {
	if cmd.RequestSID == "" {
		return nil, errors.NewValidationError("request ID is required")
	}
	if cmd.Step != StepEmail && cmd.Step != StepSMS {
		return nil, errors.NewValidationError("step must be email or sms")
	}

	now := uc.clock.Now()

	request, err := loadActiveRequest(ctx, uc.recoveryRepo, cmd.RequestSID, now, uc.logger)
	if err != nil {
		return nil, err
	}

	var target string
	var channel otp.Channel
	var purpose otp.Purpose
	switch cmd.Step {
	case StepEmail:
		if request.Status() != recovery.StatusPendingEmail {
			return nil, errors.NewConflictError("recovery request is not in the email step")
		}
		target, channel, purpose = request.Email(), otp.ChannelEmail, otp.PurposeRecoveryEmail
	case StepSMS:
		if request.Status() != recovery.StatusPendingSMS {
			return nil, errors.NewConflictError("recovery request is not in the sms step")
		}
		target, channel, purpose = request.PhoneNumber(), otp.ChannelSMS, otp.PurposeRecoverySMS
	}

	userID := request.UserID()
	issued, err := uc.issueCode.Execute(ctx, otpusecases.IssueCodeCommand{
		UserID:  &userID,
		Target:  target,
		Channel: channel,
		Purpose: purpose,
	})
	if err != nil {
		return nil, err
	}

	switch cmd.Step {
	case StepEmail:
		request.ResetEmailAttempts(now)
	case StepSMS:
		request.ResetSMSAttempts(now)
	}
	if err := uc.recoveryRepo.Update(ctx, request); err != nil {
		uc.logger.Errorw("failed to reset step attempts", "error", err, "request_id", request.SID())
		return nil, fmt.Errorf("failed to reset step attempts: %w", err)
	}

	uc.logger.Infow("recovery code resent", "request_id", request.SID(), "step", cmd.Step)

	return &ResendCodeResult{
		ExpiresAt:       issued.ExpiresAt,
		CooldownSeconds: issued.CooldownSeconds,
	}, nil
}
