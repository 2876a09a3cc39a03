package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type GetRecoveryStatusQuery struct {
	RequestSID string
}

type GetRecoveryStatusUseCase struct {
	recoveryRepo recovery.Repository
	clock        clock.Clock
	logger       logger.Interface
}

func NewGetRecoveryStatusUseCase(
	recoveryRepo recovery.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *GetRecoveryStatusUseCase {
	return &GetRecoveryStatusUseCase{
		recoveryRepo: recoveryRepo,
		clock:        clk,
		logger:       logger,
	}
}

// Execute returns the request's current state. A stale active request is
// transitioned to EXPIRED on read rather than reported as pending.
func (uc *GetRecoveryStatusUseCase) Execute(ctx context.Context, query GetRecoveryStatusQuery) (*StatusDTO, error) {
	if query.RequestSID == "" {
		return nil, errors.NewValidationError("request ID is required")
	}

	now := uc.clock.Now()

	request, err := uc.recoveryRepo.FindBySID(ctx, query.RequestSID)
	if err != nil {
		uc.logger.Errorw("failed to load recovery request", "error", err, "request_id", query.RequestSID)
		return nil, fmt.Errorf("failed to load recovery request: %w", err)
	}
	if request == nil {
		return nil, errors.NewNotFoundError("recovery request not found")
	}

	if request.Status().IsActive() && request.IsExpired(now) {
		if err := request.MarkExpired(now); err == nil {
			if updErr := uc.recoveryRepo.Update(ctx, request); updErr != nil {
				uc.logger.Errorw("failed to expire recovery request", "error", updErr, "request_id", request.SID())
			}
		}
	}

	return &StatusDTO{
		RequestID:     request.SID(),
		Status:        string(request.Status()),
		EmailVerified: request.EmailVerified(),
		SMSVerified:   request.SMSVerified(),
		MFARequired:   request.MFARequired(),
		PhoneHint:     request.PhoneHint(),
		Ready:         request.Status().IsActive() && request.IsReadyForToken(),
		ExpiresAt:     request.ExpiresAt(),
		CompletedAt:   request.CompletedAt(),
	}, nil
}
