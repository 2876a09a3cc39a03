package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type IssueRecoveryTokenCommand struct {
	RequestSID string
}

type IssueRecoveryTokenResult struct {
	Token     string
	ExpiresAt time.Time
}

type IssueRecoveryTokenUseCase struct {
	recoveryRepo recovery.Repository
	tokenIssuer  RecoveryTokenIssuer
	clock        clock.Clock
	logger       logger.Interface
}

func NewIssueRecoveryTokenUseCase(
	recoveryRepo recovery.Repository,
	tokenIssuer RecoveryTokenIssuer,
	clk clock.Clock,
	logger logger.Interface,
) *IssueRecoveryTokenUseCase {
	return &IssueRecoveryTokenUseCase{
		recoveryRepo: recoveryRepo,
		tokenIssuer:  tokenIssuer,
		clock:        clk,
		logger:       logger,
	}
}

// Execute exchanges a fully verified recovery request for a short-lived
// credential. The completion write is conditional, so concurrent exchanges
// yield exactly one token.
func (uc *IssueRecoveryTokenUseCase) Execute(ctx context.Context, cmd IssueRecoveryTokenCommand) (*IssueRecoveryTokenResult, error) {
	if cmd.RequestSID == "" {
		return nil, errors.NewValidationError("request ID is required")
	}

	now := uc.clock.Now()

	request, err := loadActiveRequest(ctx, uc.recoveryRepo, cmd.RequestSID, now, uc.logger)
	if err != nil {
		return nil, err
	}

	if err := request.Complete(now); err != nil {
		switch {
		case stderrors.Is(err, recovery.ErrTokenAlreadyIssued):
			return nil, errors.NewAlreadyUsedError("recovery token already issued")
		case stderrors.Is(err, recovery.ErrNotReady):
			return nil, errors.NewNotReadyError("required verification steps are incomplete")
		case stderrors.Is(err, recovery.ErrExpired):
			return nil, errors.NewExpiredError("recovery request expired")
		case stderrors.Is(err, recovery.ErrInvalidState):
			return nil, errors.NewConflictError("recovery request can no longer be completed")
		default:
			return nil, fmt.Errorf("failed to complete recovery request: %w", err)
		}
	}

	completed, err := uc.recoveryRepo.CompleteOnce(ctx, request)
	if err != nil {
		uc.logger.Errorw("failed to store recovery completion", "error", err, "request_id", request.SID())
		return nil, fmt.Errorf("failed to store recovery completion: %w", err)
	}
	if !completed {
		// A concurrent exchange won the conditional write
		return nil, errors.NewAlreadyUsedError("recovery token already issued")
	}

	token, expiresAt, err := uc.tokenIssuer.Issue(request.UserID(), request.SID())
	if err != nil {
		uc.logger.Errorw("failed to sign recovery token", "error", err, "request_id", request.SID())
		return nil, fmt.Errorf("failed to sign recovery token: %w", err)
	}

	uc.logger.Infow("recovery token issued",
		"request_id", request.SID(),
		"user_id", request.UserID(),
	)

	return &IssueRecoveryTokenResult{Token: token, ExpiresAt: expiresAt}, nil
}
