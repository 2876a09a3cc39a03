package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/passkey"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// SweepChallengesUseCase deletes expired challenges. Idempotent, safe to run
// from overlapping worker passes.
type SweepChallengesUseCase struct {
	challengeRepo passkey.Repository
	clock         clock.Clock
	logger        logger.Interface
}

func NewSweepChallengesUseCase(challengeRepo passkey.Repository, clk clock.Clock, logger logger.Interface) *SweepChallengesUseCase {
	return &SweepChallengesUseCase{
		challengeRepo: challengeRepo,
		clock:         clk,
		logger:        logger,
	}
}

func (uc *SweepChallengesUseCase) Execute(ctx context.Context) (int64, error) {
	removed, err := uc.challengeRepo.DeleteExpired(ctx, uc.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired challenges: %w", err)
	}
	if removed > 0 {
		uc.logger.Infow("expired passkey challenges purged", "count", removed)
	}
	return removed, nil
}
