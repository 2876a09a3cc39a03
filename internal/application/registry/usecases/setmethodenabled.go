package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type SetMethodEnabledCommand struct {
	UserID    uint
	MethodSID string
	Enabled   bool
}

// SetMethodEnabledUseCase enables or disables a method. Disabling is always
// soft; the enrollment survives and can be re-enabled later.
type SetMethodEnabledUseCase struct {
	methodRepo authmethod.Repository
	clock      clock.Clock
	logger     logger.Interface
}

func NewSetMethodEnabledUseCase(
	methodRepo authmethod.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *SetMethodEnabledUseCase {
	return &SetMethodEnabledUseCase{
		methodRepo: methodRepo,
		clock:      clk,
		logger:     logger,
	}
}

func (uc *SetMethodEnabledUseCase) Execute(ctx context.Context, cmd SetMethodEnabledCommand) (*MethodDTO, error) {
	method, err := uc.methodRepo.FindBySID(ctx, cmd.MethodSID)
	if err != nil {
		uc.logger.Errorw("failed to load method", "error", err, "method_id", cmd.MethodSID)
		return nil, fmt.Errorf("failed to load method: %w", err)
	}
	if method == nil || method.UserID() != cmd.UserID {
		return nil, errors.NewNotFoundError("authentication method not found")
	}

	now := uc.clock.Now()
	if cmd.Enabled {
		method.Enable(now)
	} else {
		method.Disable(now)
	}

	if err := uc.methodRepo.Update(ctx, method); err != nil {
		uc.logger.Errorw("failed to update method", "error", err, "method_id", cmd.MethodSID)
		return nil, fmt.Errorf("failed to update method: %w", err)
	}

	uc.logger.Infow("authentication method toggled",
		"method_id", method.SID(),
		"user_id", cmd.UserID,
		"enabled", cmd.Enabled,
	)

	dto := toMethodDTO(method)
	return &dto, nil
}
