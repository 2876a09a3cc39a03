package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
)

type CanSendQuery struct {
	Target  string
	Purpose otp.Purpose
}

type CanSendResult struct {
	Allowed           bool
	RetryAfterSeconds int
}

// CanSendUseCase answers whether an issue for (target, purpose) would pass
// the cooldown and daily cap right now, without issuing anything.
type CanSendUseCase struct {
	codeRepo otp.Repository
	config   Config
	clock    clock.Clock
}

func NewCanSendUseCase(codeRepo otp.Repository, config Config, clk clock.Clock) *CanSendUseCase {
	return &CanSendUseCase{
		codeRepo: codeRepo,
		config:   config,
		clock:    clk,
	}
}

func (uc *CanSendUseCase) Execute(ctx context.Context, query CanSendQuery) (*CanSendResult, error) {
	if query.Target == "" {
		return nil, errors.NewValidationError("target is required")
	}

	now := uc.clock.Now()

	latest, err := uc.codeRepo.FindLatest(ctx, query.Target, query.Purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest code: %w", err)
	}
	if latest != nil {
		elapsed := now.Sub(latest.CreatedAt())
		if elapsed < uc.config.Cooldown {
			return &CanSendResult{
				Allowed:           false,
				RetryAfterSeconds: int((uc.config.Cooldown - elapsed + time.Second - 1) / time.Second),
			}, nil
		}
	}

	issued, err := uc.codeRepo.CountIssuedSince(ctx, query.Target, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count issued codes: %w", err)
	}
	if issued >= int64(uc.config.DailyCap) {
		return &CanSendResult{Allowed: false}, nil
	}

	return &CanSendResult{Allowed: true}, nil
}
