package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

type VerifyCodeCommand struct {
	Target    string
	Purpose   otp.Purpose
	Candidate string
}

type VerifyCodeResult struct {
	UserID *uint
}

type VerifyCodeUseCase struct {
	codeRepo otp.Repository
	clock    clock.Clock
	logger   logger.Interface
}

func NewVerifyCodeUseCase(
	codeRepo otp.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *VerifyCodeUseCase {
	return &VerifyCodeUseCase{
		codeRepo: codeRepo,
		clock:    clk,
		logger:   logger,
	}
}

// Execute checks one candidate against the newest code for (target, purpose).
// Attempt accounting and consumption both go through conditional writes, so
// concurrent verifiers cannot double-spend an attempt or the code itself.
func (uc *VerifyCodeUseCase) Execute(ctx context.Context, cmd VerifyCodeCommand) (*VerifyCodeResult, error) {
	if cmd.Target == "" || cmd.Candidate == "" {
		return nil, errors.NewValidationError("target and code are required")
	}
	if !cmd.Purpose.IsValid() {
		return nil, errors.NewValidationError("invalid purpose")
	}

	now := uc.clock.Now()

	code, err := uc.codeRepo.FindLatest(ctx, cmd.Target, cmd.Purpose)
	if err != nil {
		uc.logger.Errorw("failed to load code", "error", err, "target", utils.MaskTarget(cmd.Target))
		return nil, fmt.Errorf("failed to load code: %w", err)
	}
	if code == nil {
		return nil, errors.NewNotFoundError("no code found for this target")
	}

	priorAttempts := code.Attempts()

	if err := code.CheckCandidate(cmd.Candidate, now); err != nil {
		switch {
		case stderrors.Is(err, otp.ErrConsumed):
			return nil, errors.NewAlreadyUsedError("code already used")
		case stderrors.Is(err, otp.ErrExpired):
			return nil, errors.NewExpiredError("code expired")
		case stderrors.Is(err, otp.ErrAttemptsExceeded):
			return nil, errors.NewAttemptsExceededError("too many failed attempts")
		case stderrors.Is(err, otp.ErrMismatch):
			uc.recordFailedAttempt(ctx, cmd, code, priorAttempts, now)
			uc.logger.Infow("one-time code mismatch",
				"code_id", code.SID(),
				"attempts", code.Attempts(),
				"target", utils.MaskTarget(cmd.Target),
			)
			return nil, errors.NewUnauthorizedError("invalid code")
		default:
			return nil, fmt.Errorf("failed to verify code: %w", err)
		}
	}

	consumed, err := uc.codeRepo.MarkVerified(ctx, code.ID(), now)
	if err != nil {
		uc.logger.Errorw("failed to consume code", "error", err, "code_id", code.SID())
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}
	if !consumed {
		// A concurrent verifier won the conditional write
		return nil, errors.NewAlreadyUsedError("code already used")
	}

	uc.logger.Infow("one-time code verified",
		"code_id", code.SID(),
		"purpose", cmd.Purpose,
		"target", utils.MaskTarget(cmd.Target),
	)

	return &VerifyCodeResult{UserID: code.UserID()}, nil
}

// recordFailedAttempt spends one attempt through the conditional write. A
// concurrent verifier can win the same slot, so a lost write retries
// against the refreshed count; the attempt budget must not undercount.
func (uc *VerifyCodeUseCase) recordFailedAttempt(ctx context.Context, cmd VerifyCodeCommand, code *otp.Code, fromAttempts int, now time.Time) {
	applied, err := uc.codeRepo.IncrementAttempts(ctx, code.ID(), fromAttempts)
	for retries := 0; err == nil && !applied && retries < 2; retries++ {
		fresh, ferr := uc.codeRepo.FindActive(ctx, cmd.Target, cmd.Purpose, now)
		if ferr != nil || fresh == nil || fresh.ID() != code.ID() {
			// The code was consumed or spent out from under us
			return
		}
		applied, err = uc.codeRepo.IncrementAttempts(ctx, code.ID(), fresh.Attempts())
	}
	if err != nil {
		uc.logger.Errorw("failed to record attempt", "error", err, "code_id", code.SID())
		return
	}
	if !applied {
		uc.logger.Warnw("attempt lost to concurrent writes", "code_id", code.SID())
	}
}
