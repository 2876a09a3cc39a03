package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	otpusecases "github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

type VerifyEmailStepCommand struct {
	RequestSID string
	Code       string
}

type VerifyEmailStepResult struct {
	Status    string
	Ready     bool
	PhoneHint string
}

type VerifyEmailStepUseCase struct {
	recoveryRepo recovery.Repository
	verifyCode   *otpusecases.VerifyCodeUseCase
	issueCode    *otpusecases.IssueCodeUseCase
	clock        clock.Clock
	logger       logger.Interface
}

func NewVerifyEmailStepUseCase(
	recoveryRepo recovery.Repository,
	verifyCode *otpusecases.VerifyCodeUseCase,
	issueCode *otpusecases.IssueCodeUseCase,
	clk clock.Clock,
	logger logger.Interface,
) *VerifyEmailStepUseCase {
	return &VerifyEmailStepUseCase{
		recoveryRepo: recoveryRepo,
		verifyCode:   verifyCode,
		issueCode:    issueCode,
		clock:        clk,
		logger:       logger,
	}
}

// Execute checks the email-step code. Passing advances the request to the
// SMS step when a second factor is required, and sends that step's code.
func (uc *VerifyEmailStepUseCase) Execute(ctx context.Context, cmd VerifyEmailStepCommand) (*VerifyEmailStepResult, error) {
	if cmd.RequestSID == "" || cmd.Code == "" {
		return nil, errors.NewValidationError("request ID and code are required")
	}

	now := uc.clock.Now()

	request, err := loadActiveRequest(ctx, uc.recoveryRepo, cmd.RequestSID, now, uc.logger)
	if err != nil {
		return nil, err
	}

	if err := request.CheckEmailStep(now); err != nil {
		return nil, mapStepError(err)
	}

	if _, err := uc.verifyCode.Execute(ctx, otpusecases.VerifyCodeCommand{
		Target:    request.Email(),
		Purpose:   otp.PurposeRecoveryEmail,
		Candidate: cmd.Code,
	}); err != nil {
		if errors.IsType(err, errors.ErrorTypeUnauthorized) {
			request.RecordEmailFailure(now)
			if updErr := uc.recoveryRepo.Update(ctx, request); updErr != nil {
				uc.logger.Errorw("failed to record email step failure", "error", updErr, "request_id", request.SID())
			}
		}
		return nil, err
	}

	if err := request.MarkEmailVerified(now); err != nil {
		return nil, mapStepError(err)
	}
	if err := uc.recoveryRepo.Update(ctx, request); err != nil {
		uc.logger.Errorw("failed to store email step result", "error", err, "request_id", request.SID())
		return nil, fmt.Errorf("failed to store email step result: %w", err)
	}

	if request.Status() == recovery.StatusPendingSMS {
		userID := request.UserID()
		if _, err := uc.issueCode.Execute(ctx, otpusecases.IssueCodeCommand{
			UserID:  &userID,
			Target:  request.PhoneNumber(),
			Channel: otp.ChannelSMS,
			Purpose: otp.PurposeRecoverySMS,
		}); err != nil {
			uc.logger.Errorw("failed to issue recovery sms code",
				"error", err,
				"request_id", request.SID(),
				"target", utils.MaskPhone(request.PhoneNumber()),
			)
			return nil, err
		}
	}

	uc.logger.Infow("recovery email step passed",
		"request_id", request.SID(),
		"status", request.Status(),
		"ready", request.IsReadyForToken(),
	)

	return &VerifyEmailStepResult{
		Status:    string(request.Status()),
		Ready:     request.IsReadyForToken(),
		PhoneHint: request.PhoneHint(),
	}, nil
}

// loadActiveRequest resolves a request by SID and lazily expires it when the
// deadline passed while it was still marked active.
func loadActiveRequest(
	ctx context.Context,
	repo recovery.Repository,
	sid string,
	now time.Time,
	log logger.Interface,
) (*recovery.Request, error) {
	request, err := repo.FindBySID(ctx, sid)
	if err != nil {
		log.Errorw("failed to load recovery request", "error", err, "request_id", sid)
		return nil, fmt.Errorf("failed to load recovery request: %w", err)
	}
	if request == nil {
		return nil, errors.NewNotFoundError("recovery request not found")
	}
	if request.Status().IsActive() && request.IsExpired(now) {
		if err := request.MarkExpired(now); err == nil {
			if updErr := repo.Update(ctx, request); updErr != nil {
				log.Errorw("failed to expire recovery request", "error", updErr, "request_id", sid)
			}
		}
		return nil, errors.NewExpiredError("recovery request expired")
	}
	return request, nil
}

// mapStepError translates domain step guards to API error kinds.
func mapStepError(err error) error {
	switch {
	case stderrors.Is(err, recovery.ErrInvalidState):
		return errors.NewConflictError("recovery request is not in the required step")
	case stderrors.Is(err, recovery.ErrExpired):
		return errors.NewExpiredError("recovery request expired")
	case stderrors.Is(err, recovery.ErrStepAttemptsExceeded):
		return errors.NewAttemptsExceededError("too many failed attempts for this step")
	default:
		return fmt.Errorf("recovery step check failed: %w", err)
	}
}
