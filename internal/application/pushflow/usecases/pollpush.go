package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

type PollPushQuery struct {
	RequestSID string
	UserID     uint
}

type PollPushResult struct {
	Status    string
	Purpose   string
	ExpiresAt time.Time
}

// PollPushUseCase reports the request state to the waiting client. A
// pending request past its deadline is expired on read, so callers never
// see a stale PENDING.
type PollPushUseCase struct {
	requestRepo pushauth.Repository
	clock       clock.Clock
	logger      logger.Interface
}

func NewPollPushUseCase(
	requestRepo pushauth.Repository,
	clk clock.Clock,
	logger logger.Interface,
) *PollPushUseCase {
	return &PollPushUseCase{
		requestRepo: requestRepo,
		clock:       clk,
		logger:      logger,
	}
}

func (uc *PollPushUseCase) Execute(ctx context.Context, query PollPushQuery) (*PollPushResult, error) {
	request, err := uc.requestRepo.FindBySID(ctx, query.RequestSID)
	if err != nil {
		uc.logger.Errorw("failed to load push request", "error", err, "request_id", query.RequestSID)
		return nil, fmt.Errorf("failed to load push request: %w", err)
	}
	if request == nil || (query.UserID != 0 && request.UserID() != query.UserID) {
		return nil, errors.NewNotFoundError("push request not found")
	}

	now := uc.clock.Now()
	if request.Status() == pushauth.StatusPending && request.IsExpired(now) {
		if err := request.MarkExpired(now); err == nil {
			if _, uerr := uc.requestRepo.UpdateStatus(ctx, request); uerr != nil {
				uc.logger.Warnw("failed to mark push request expired", "error", uerr, "request_id", request.SID())
			}
		}
	}

	return &PollPushResult{
		Status:    string(request.Status()),
		Purpose:   string(request.Purpose()),
		ExpiresAt: request.ExpiresAt(),
	}, nil
}
