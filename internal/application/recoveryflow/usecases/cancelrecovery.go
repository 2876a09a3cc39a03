package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type CancelRecoveryCommand struct {
	RequestSID string
}

type CancelRecoveryUseCase struct {
	recoveryRepo recovery.Repository
	clock        clock.Clock
	logger       logger.Interface
}

func NewCancelRecoveryUseCase(
	recoveryRepo recovery.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *CancelRecoveryUseCase {
	return &CancelRecoveryUseCase{
		recoveryRepo: recoveryRepo,
		clock:        clk,
		logger:       logger,
	}
}

// Execute withdraws an active recovery request.
func (uc *CancelRecoveryUseCase) Execute(ctx context.Context, cmd CancelRecoveryCommand) error {
	if cmd.RequestSID == "" {
		return errors.NewValidationError("request ID is required")
	}

	now := uc.clock.Now()

	request, err := uc.recoveryRepo.FindBySID(ctx, cmd.RequestSID)
	if err != nil {
		uc.logger.Errorw("failed to load recovery request", "error", err, "request_id", cmd.RequestSID)
		return fmt.Errorf("failed to load recovery request: %w", err)
	}
	if request == nil {
		return errors.NewNotFoundError("recovery request not found")
	}

	if err := request.Cancel(now); err != nil {
		if stderrors.Is(err, recovery.ErrInvalidState) {
			return errors.NewConflictError("recovery request is no longer active")
		}
		return fmt.Errorf("failed to cancel recovery request: %w", err)
	}

	if err := uc.recoveryRepo.Update(ctx, request); err != nil {
		uc.logger.Errorw("failed to store cancellation", "error", err, "request_id", request.SID())
		return fmt.Errorf("failed to store cancellation: %w", err)
	}

	uc.logger.Infow("recovery request cancelled", "request_id", request.SID())
	return nil
}
