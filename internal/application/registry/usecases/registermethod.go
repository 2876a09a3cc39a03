package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/id"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type RegisterMethodCommand struct {
	UserID      uint
	Variant     authmethod.Variant
	DisplayName string
	Payload     authmethod.Payload
}

type RegisterMethodResult struct {
	Method MethodDTO
}

type RegisterMethodUseCase struct {
	methodRepo authmethod.Repository
	clock      clock.Clock
	logger     logger.Interface
}

func NewRegisterMethodUseCase(
	methodRepo authmethod.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *RegisterMethodUseCase {
	return &RegisterMethodUseCase{
		methodRepo: methodRepo,
		clock:      clk,
		logger:     logger,
	}
}

func (uc *RegisterMethodUseCase) Execute(ctx context.Context, cmd RegisterMethodCommand) (*RegisterMethodResult, error) {
	method, err := authmethod.NewMethod(
		cmd.UserID,
		cmd.Variant,
		cmd.DisplayName,
		cmd.Payload,
		id.NewAuthMethodID,
		uc.clock.Now(),
	)
	if err != nil {
		return nil, errors.NewValidationError("invalid authentication method", err.Error())
	}

	exists, err := uc.methodRepo.ExistsByUserVariantTarget(ctx, cmd.UserID, cmd.Variant, method.TargetKey())
	if err != nil {
		uc.logger.Errorw("failed to check method uniqueness", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to check method uniqueness: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("this method is already registered")
	}

	if err := uc.methodRepo.Create(ctx, method); err != nil {
		if errors.IsDuplicateError(err) {
			// Lost a race with a concurrent registration of the same target
			return nil, errors.NewConflictError("this method is already registered")
		}
		uc.logger.Errorw("failed to create method", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to create method: %w", err)
	}

	uc.logger.Infow("authentication method registered",
		"method_id", method.SID(),
		"user_id", cmd.UserID,
		"variant", cmd.Variant,
	)

	return &RegisterMethodResult{Method: toMethodDTO(method)}, nil
}
