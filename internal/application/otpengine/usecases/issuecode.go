package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/goroutine"
	"github.com/veridian-id/veridian/internal/shared/id"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

type IssueCodeCommand struct {
	UserID  *uint
	Target  string
	Channel otp.Channel
	Purpose otp.Purpose
}

type IssueCodeResult struct {
	ExpiresAt       time.Time
	CooldownSeconds int
}

type IssueCodeUseCase struct {
	codeRepo   otp.Repository
	dispatcher CodeDispatcher
	config     Config
	clock      clock.Clock
	logger     logger.Interface
}

func NewIssueCodeUseCase(
	codeRepo otp.Repository,
	dispatcher CodeDispatcher,
	config Config,
	clk clock.Clock,
	logger logger.Interface,
) *IssueCodeUseCase {
	return &IssueCodeUseCase{
		codeRepo:   codeRepo,
		dispatcher: dispatcher,
		config:     config,
		clock:      clk,
		logger:     logger,
	}
}

// Execute issues a fresh code for (target, purpose). The response shape is
// identical whether or not the target maps to a known user.
func (uc *IssueCodeUseCase) Execute(ctx context.Context, cmd IssueCodeCommand) (*IssueCodeResult, error) {
	if cmd.Target == "" {
		return nil, errors.NewValidationError("target is required")
	}
	if !cmd.Channel.IsValid() {
		return nil, errors.NewValidationError("invalid channel")
	}
	if !cmd.Purpose.IsValid() {
		return nil, errors.NewValidationError("invalid purpose")
	}

	now := uc.clock.Now()

	latest, err := uc.codeRepo.FindLatest(ctx, cmd.Target, cmd.Purpose)
	if err != nil {
		uc.logger.Errorw("failed to load latest code", "error", err, "target", utils.MaskTarget(cmd.Target))
		return nil, fmt.Errorf("failed to load latest code: %w", err)
	}
	if latest != nil {
		elapsed := now.Sub(latest.CreatedAt())
		if elapsed < uc.config.Cooldown {
			return nil, errors.NewRateLimitedError("please wait before requesting another code")
		}
	}

	issued, err := uc.codeRepo.CountIssuedSince(ctx, cmd.Target, now.Add(-24*time.Hour))
	if err != nil {
		uc.logger.Errorw("failed to count issued codes", "error", err, "target", utils.MaskTarget(cmd.Target))
		return nil, fmt.Errorf("failed to count issued codes: %w", err)
	}
	if issued >= int64(uc.config.DailyCap) {
		return nil, errors.NewRateLimitedError("daily code limit reached")
	}

	plaintext, err := otp.GenerateCode(uc.config.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	code, err := otp.NewCode(
		cmd.UserID,
		cmd.Target,
		cmd.Channel,
		cmd.Purpose,
		plaintext,
		uc.config.MaxAttempts,
		uc.config.TTL,
		id.NewOTPCodeID,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create code: %w", err)
	}

	if err := uc.codeRepo.Create(ctx, code); err != nil {
		uc.logger.Errorw("failed to store code", "error", err, "target", utils.MaskTarget(cmd.Target))
		return nil, fmt.Errorf("failed to store code: %w", err)
	}

	// The new code supersedes any still-active predecessor. Running this
	// after the insert means a failed insert leaves the old code usable;
	// in the gap Verify already resolves against the newest code.
	if err := uc.codeRepo.InvalidateActive(ctx, cmd.Target, cmd.Purpose, code.ID(), now); err != nil {
		uc.logger.Errorw("failed to invalidate superseded codes", "error", err, "target", utils.MaskTarget(cmd.Target))
		return nil, fmt.Errorf("failed to invalidate superseded codes: %w", err)
	}

	// Delivery failures do not roll the code back; the caller can resend
	// once the cooldown passes
	target := cmd.Target
	channel := cmd.Channel
	purpose := cmd.Purpose
	goroutine.SafeGo(uc.logger, "otp-dispatch", func() {
		if err := uc.dispatcher.SendCode(context.Background(), channel, target, plaintext, purpose); err != nil {
			uc.logger.Warnw("failed to deliver one-time code",
				"error", err,
				"channel", channel,
				"target", utils.MaskTarget(target),
			)
		}
	})

	uc.logger.Infow("one-time code issued",
		"code_id", code.SID(),
		"channel", cmd.Channel,
		"purpose", cmd.Purpose,
		"target", utils.MaskTarget(cmd.Target),
	)

	return &IssueCodeResult{
		ExpiresAt:       code.ExpiresAt(),
		CooldownSeconds: int(uc.config.Cooldown / time.Second),
	}, nil
}
