package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type MarkMethodVerifiedCommand struct {
	UserID    uint
	MethodSID string
}

// MarkMethodVerifiedUseCase records a passed ownership proof: a confirmed
// OTP to the method's target, a completed passkey ceremony, or an approved
// enrollment push.
type MarkMethodVerifiedUseCase struct {
	methodRepo authmethod.Repository
	clock      clock.Clock
	logger     logger.Interface
}

func NewMarkMethodVerifiedUseCase(
	methodRepo authmethod.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *MarkMethodVerifiedUseCase {
	return &MarkMethodVerifiedUseCase{
		methodRepo: methodRepo,
		clock:      clk,
		logger:     logger,
	}
}

func (uc *MarkMethodVerifiedUseCase) Execute(ctx context.Context, cmd MarkMethodVerifiedCommand) (*MethodDTO, error) {
	method, err := uc.methodRepo.FindBySID(ctx, cmd.MethodSID)
	if err != nil {
		uc.logger.Errorw("failed to load method", "error", err, "method_id", cmd.MethodSID)
		return nil, fmt.Errorf("failed to load method: %w", err)
	}
	if method == nil || method.UserID() != cmd.UserID {
		return nil, errors.NewNotFoundError("authentication method not found")
	}

	method.MarkVerified(uc.clock.Now())

	if err := uc.methodRepo.Update(ctx, method); err != nil {
		uc.logger.Errorw("failed to update method", "error", err, "method_id", cmd.MethodSID)
		return nil, fmt.Errorf("failed to update method: %w", err)
	}

	uc.logger.Infow("authentication method verified",
		"method_id", method.SID(),
		"user_id", cmd.UserID,
		"variant", method.Variant(),
	)

	dto := toMethodDTO(method)
	return &dto, nil
}
