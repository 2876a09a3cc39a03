package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// CleanupExpiredUseCase purges expired codes. Passes are idempotent, so
// overlapping worker runs are harmless.
type CleanupExpiredUseCase struct {
	codeRepo otp.Repository
	clock    clock.Clock
	logger   logger.Interface
}

func NewCleanupExpiredUseCase(codeRepo otp.Repository, clk clock.Clock, logger logger.Interface) *CleanupExpiredUseCase {
	return &CleanupExpiredUseCase{
		codeRepo: codeRepo,
		clock:    clk,
		logger:   logger,
	}
}

func (uc *CleanupExpiredUseCase) Execute(ctx context.Context) (int64, error) {
	removed, err := uc.codeRepo.DeleteExpired(ctx, uc.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", err)
	}
	if removed > 0 {
		uc.logger.Infow("expired one-time codes purged", "count", removed)
	}
	return removed, nil
}
