package usecases

import (
	"context"
	"fmt"

	otpusecases "github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type VerifySMSStepCommand struct {
	RequestSID string
	Code       string
}

type VerifySMSStepResult struct {
	Status string
	Ready  bool
}

type VerifySMSStepUseCase struct {
	recoveryRepo recovery.Repository
	verifyCode   *otpusecases.VerifyCodeUseCase
	clock        clock.Clock
	logger       logger.Interface
}

func NewVerifySMSStepUseCase(
	recoveryRepo recovery.Repository,
	verifyCode *otpusecases.VerifyCodeUseCase,
	clk clock.Clock,
	logger logger.Interface,
) *VerifySMSStepUseCase {
	return &VerifySMSStepUseCase{
		recoveryRepo: recoveryRepo,
		verifyCode:   verifyCode,
		clock:        clk,
		logger:       logger,
	}
}

// Execute checks the SMS-step code for a request that already passed the
// email step.
func (uc *VerifySMSStepUseCase) Execute(ctx context.Context, cmd VerifySMSStepCommand) (*VerifySMSStepResult, error) {
	if cmd.RequestSID == "" || cmd.Code == "" {
		return nil, errors.NewValidationError("request ID and code are required")
	}

	now := uc.clock.Now()

	request, err := loadActiveRequest(ctx, uc.recoveryRepo, cmd.RequestSID, now, uc.logger)
	if err != nil {
		return nil, err
	}

	if err := request.CheckSMSStep(now); err != nil {
		return nil, mapStepError(err)
	}

	if _, err := uc.verifyCode.Execute(ctx, otpusecases.VerifyCodeCommand{
		Target:    request.PhoneNumber(),
		Purpose:   otp.PurposeRecoverySMS,
		Candidate: cmd.Code,
	}); err != nil {
		if errors.IsType(err, errors.ErrorTypeUnauthorized) {
			request.RecordSMSFailure(now)
			if updErr := uc.recoveryRepo.Update(ctx, request); updErr != nil {
				uc.logger.Errorw("failed to record sms step failure", "error", updErr, "request_id", request.SID())
			}
		}
		return nil, err
	}

	if err := request.MarkSMSVerified(now); err != nil {
		return nil, mapStepError(err)
	}
	if err := uc.recoveryRepo.Update(ctx, request); err != nil {
		uc.logger.Errorw("failed to store sms step result", "error", err, "request_id", request.SID())
		return nil, fmt.Errorf("failed to store sms step result: %w", err)
	}

	uc.logger.Infow("recovery sms step passed",
		"request_id", request.SID(),
		"ready", request.IsReadyForToken(),
	)

	return &VerifySMSStepResult{
		Status: string(request.Status()),
		Ready:  request.IsReadyForToken(),
	}, nil
}
