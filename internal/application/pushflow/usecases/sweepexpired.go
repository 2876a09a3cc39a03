package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// SweepExpiredUseCase transitions overdue PENDING requests to EXPIRED. The
// underlying write only touches rows still pending, so overlapping passes
// are no-ops.
type SweepExpiredUseCase struct {
	requestRepo pushauth.Repository
	clock       clock.Clock
	logger      logger.Interface
}

func NewSweepExpiredUseCase(requestRepo pushauth.Repository, clk clock.Clock, logger logger.Interface) *SweepExpiredUseCase {
	return &SweepExpiredUseCase{
		requestRepo: requestRepo,
		clock:       clk,
		logger:      logger,
	}
}

func (uc *SweepExpiredUseCase) Execute(ctx context.Context) (int64, error) {
	expired, err := uc.requestRepo.MarkExpiredBefore(ctx, uc.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire push requests: %w", err)
	}
	if expired > 0 {
		uc.logger.Infow("push requests expired", "count", expired)
	}
	return expired, nil
}
