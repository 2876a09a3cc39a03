package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type CancelPendingCommand struct {
	UserID uint
}

type CancelPendingResult struct {
	Cancelled int
}

// CancelPendingUseCase withdraws every pending push request for the user,
// for logout and session invalidation paths.
type CancelPendingUseCase struct {
	requestRepo pushauth.Repository
	clock       clock.Clock
	logger      logger.Interface
}

func NewCancelPendingUseCase(
	requestRepo pushauth.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *CancelPendingUseCase {
	return &CancelPendingUseCase{
		requestRepo: requestRepo,
		clock:       clk,
		logger:      logger,
	}
}

func (uc *CancelPendingUseCase) Execute(ctx context.Context, cmd CancelPendingCommand) (*CancelPendingResult, error) {
	pending, err := uc.requestRepo.FindPendingByUserID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to list pending push requests", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to list pending push requests: %w", err)
	}

	now := uc.clock.Now()
	cancelled := 0
	for _, request := range pending {
		if err := request.Cancel(now); err != nil {
			continue
		}
		applied, err := uc.requestRepo.UpdateStatus(ctx, request)
		if err != nil {
			uc.logger.Warnw("failed to cancel push request", "error", err, "request_id", request.SID())
			continue
		}
		if applied {
			cancelled++
		}
	}

	if cancelled > 0 {
		uc.logger.Infow("pending push requests cancelled", "user_id", cmd.UserID, "count", cancelled)
	}

	return &CancelPendingResult{Cancelled: cancelled}, nil
}
