package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type RespondPushCommand struct {
	RequestSID string
	Challenge  string
	MethodSID  string
	Approve    bool
}

type RespondPushResult struct {
	Status string
}

// RespondPushUseCase resolves a pending request from a device. The first
// valid response wins; everyone else gets a conflict.
type RespondPushUseCase struct {
	requestRepo pushauth.Repository
	clock       clock.Clock
	logger      logger.Interface
}

func NewRespondPushUseCase(
	requestRepo pushauth.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *RespondPushUseCase {
	return &RespondPushUseCase{
		requestRepo: requestRepo,
		clock:       clk,
		logger:      logger,
	}
}

func (uc *RespondPushUseCase) Execute(ctx context.Context, cmd RespondPushCommand) (*RespondPushResult, error) {
	if cmd.RequestSID == "" || cmd.Challenge == "" {
		return nil, errors.NewValidationError("request ID and challenge are required")
	}

	now := uc.clock.Now()

	request, err := uc.requestRepo.FindBySID(ctx, cmd.RequestSID)
	if err != nil {
		uc.logger.Errorw("failed to load push request", "error", err, "request_id", cmd.RequestSID)
		return nil, fmt.Errorf("failed to load push request: %w", err)
	}
	if request == nil {
		return nil, errors.NewNotFoundError("push request not found")
	}

	var respondErr error
	if cmd.Approve {
		respondErr = request.Approve(cmd.Challenge, cmd.MethodSID, now)
	} else {
		respondErr = request.Deny(cmd.Challenge, cmd.MethodSID, now)
	}
	if respondErr != nil {
		switch {
		case stderrors.Is(respondErr, pushauth.ErrExpired):
			// Record the lazy expiry so polls see a terminal state
			if markErr := request.MarkExpired(now); markErr == nil {
				if _, uerr := uc.requestRepo.UpdateStatus(ctx, request); uerr != nil {
					uc.logger.Warnw("failed to mark push request expired", "error", uerr, "request_id", request.SID())
				}
			}
			return nil, errors.NewExpiredError("push request expired")
		case stderrors.Is(respondErr, pushauth.ErrNotPending):
			return nil, errors.NewAlreadyUsedError("push request already resolved")
		case stderrors.Is(respondErr, pushauth.ErrChallengeMismatch):
			return nil, errors.NewUnauthorizedError("invalid challenge token")
		default:
			return nil, fmt.Errorf("failed to respond to push request: %w", respondErr)
		}
	}

	applied, err := uc.requestRepo.UpdateStatus(ctx, request)
	if err != nil {
		uc.logger.Errorw("failed to store push response", "error", err, "request_id", request.SID())
		return nil, fmt.Errorf("failed to store push response: %w", err)
	}
	if !applied {
		// A concurrent device resolved the request first
		return nil, errors.NewAlreadyUsedError("push request already resolved")
	}

	uc.logger.Infow("push request resolved",
		"request_id", request.SID(),
		"status", request.Status(),
		"method_id", cmd.MethodSID,
	)

	return &RespondPushResult{Status: string(request.Status())}, nil
}
