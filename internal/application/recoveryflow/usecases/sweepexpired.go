package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// SweepExpiredUseCase transitions overdue active requests to EXPIRED. The
// write only touches rows still active, so overlapping passes are no-ops.
type SweepExpiredUseCase struct {
	recoveryRepo recovery.Repository
	clock        clock.Clock
	logger       logger.Interface
}

func NewSweepExpiredUseCase(recoveryRepo recovery.Repository, clk clock.Clock, logger logger.Interface) *SweepExpiredUseCase {
	return &SweepExpiredUseCase{
		recoveryRepo: recoveryRepo,
		clock:        clk,
		logger:       logger,
	}
}

func (uc *SweepExpiredUseCase) Execute(ctx context.Context) (int64, error) {
	expired, err := uc.recoveryRepo.MarkExpiredBefore(ctx, uc.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire recovery requests: %w", err)
	}
	if expired > 0 {
		uc.logger.Infow("recovery requests expired", "count", expired)
	}
	return expired, nil
}
