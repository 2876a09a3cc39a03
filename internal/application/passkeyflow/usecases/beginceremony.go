package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/veridian-id/veridian/internal/domain/passkey"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/id"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type BeginCeremonyCommand struct {
	Purpose   passkey.Purpose
	UserID    *uint // nil for discoverable-credential authentication
	SessionID string
}

type BeginCeremonyResult struct {
	ChallengeID string
	Challenge   string
	ExpiresAt   time.Time
}

type BeginCeremonyUseCase struct {
	challengeRepo passkey.Repository
	challengeTTL  time.Duration
	clock         clock.Clock
	logger        logger.Interface
}

func NewBeginCeremonyUseCase(
	challengeRepo passkey.Repository,
	challengeTTL time.Duration,
	clk clock.Clock,
	logger logger.Interface,
) *BeginCeremonyUseCase {
	return &BeginCeremonyUseCase{
		challengeRepo: challengeRepo,
		challengeTTL:  challengeTTL,
		clock:         clk,
		logger:        logger,
	}
}

func (uc *BeginCeremonyUseCase) Execute(ctx context.Context, cmd BeginCeremonyCommand) (*BeginCeremonyResult, error) {
	if !cmd.Purpose.IsValid() {
		return nil, errors.NewValidationError("invalid ceremony purpose")
	}

	challenge, err := passkey.NewChallenge(
		cmd.Purpose,
		cmd.UserID,
		cmd.SessionID,
		uc.challengeTTL,
		id.NewPasskeyChallengeID,
		uc.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	if err := uc.challengeRepo.Create(ctx, challenge); err != nil {
		uc.logger.Errorw("failed to store challenge", "error", err)
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	uc.logger.Infow("passkey ceremony started",
		"challenge_id", challenge.SID(),
		"purpose", cmd.Purpose,
	)

	return &BeginCeremonyResult{
		ChallengeID: challenge.SID(),
		Challenge:   challenge.Value(),
		ExpiresAt:   challenge.ExpiresAt(),
	}, nil
}
