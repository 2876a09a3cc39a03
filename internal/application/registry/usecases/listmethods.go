package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type ListMethodsQuery struct {
	UserID      uint
	Variant     authmethod.Variant // optional filter
	EnabledOnly bool
}

type ListMethodsUseCase struct {
	methodRepo authmethod.Repository
	logger     logger.Interface
}

func NewListMethodsUseCase(methodRepo authmethod.Repository, logger logger.Interface) *ListMethodsUseCase {
	return &ListMethodsUseCase{
		methodRepo: methodRepo,
		logger:     logger,
	}
}

func (uc *ListMethodsUseCase) Execute(ctx context.Context, query ListMethodsQuery) ([]MethodDTO, error) {
	var methods []*authmethod.Method
	var err error

	if query.Variant != "" {
		methods, err = uc.methodRepo.FindByUserIDAndVariant(ctx, query.UserID, query.Variant)
	} else {
		methods, err = uc.methodRepo.FindByUserID(ctx, query.UserID)
	}
	if err != nil {
		uc.logger.Errorw("failed to list methods", "error", err, "user_id", query.UserID)
		return nil, fmt.Errorf("failed to list methods: %w", err)
	}

	if query.EnabledOnly {
		filtered := methods[:0]
		for _, m := range methods {
			if m.Enabled() {
				filtered = append(filtered, m)
			}
		}
		methods = filtered
	}

	return toMethodDTOs(methods), nil
}
