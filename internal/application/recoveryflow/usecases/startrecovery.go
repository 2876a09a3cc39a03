package usecases

import (
	"context"
	"fmt"
	"time"

	otpusecases "github.com/veridian-id/veridian/internal/application/otpengine/usecases"
	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/id"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

type StartRecoveryCommand struct {
	Email     string
	IP        string
	UserAgent string
}

type StartRecoveryResult struct {
	RequestID string
	ExpiresAt time.Time
}

type StartRecoveryUseCase struct {
	recoveryRepo recovery.Repository
	methodRepo   authmethod.Repository
	users        UserDirectory
	gate         StartGate
	issueCode    *otpusecases.IssueCodeUseCase
	config       Config
	clock        clock.Clock
	logger       logger.Interface
}

func NewStartRecoveryUseCase(
	recoveryRepo recovery.Repository,
	methodRepo authmethod.Repository,
	users UserDirectory,
	gate StartGate,
	issueCode *otpusecases.IssueCodeUseCase,
	config Config,
	clk clock.Clock,
	logger logger.Interface,
) *StartRecoveryUseCase {
	return &StartRecoveryUseCase{
		recoveryRepo: recoveryRepo,
		methodRepo:   methodRepo,
		users:        users,
		gate:         gate,
		issueCode:    issueCode,
		config:       config,
		clock:        clk,
		logger:       logger,
	}
}

// Execute starts account recovery for an email address. The result looks
// the same whether or not the address belongs to an account; for unknown
// addresses the returned request ID is a decoy that maps to nothing.
func (uc *StartRecoveryUseCase) Execute(ctx context.Context, cmd StartRecoveryCommand) (*StartRecoveryResult, error) {
	if cmd.Email == "" {
		return nil, errors.NewValidationError("email is required")
	}

	allowed, err := uc.gate.AllowStart(ctx, cmd.Email, cmd.IP)
	if err != nil {
		uc.logger.Errorw("recovery start gate failed", "error", err)
		return nil, fmt.Errorf("recovery start gate failed: %w", err)
	}
	if !allowed {
		return nil, errors.NewRateLimitedError("too many recovery attempts")
	}

	now := uc.clock.Now()

	account, err := uc.users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		uc.logger.Errorw("failed to resolve account", "error", err, "email", utils.MaskEmail(cmd.Email))
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}
	if account == nil {
		uc.logger.Infow("recovery requested for unknown email", "email", utils.MaskEmail(cmd.Email))
		decoy, err := id.NewRecoveryRequestID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate request ID: %w", err)
		}
		return &StartRecoveryResult{RequestID: decoy, ExpiresAt: now.Add(uc.config.RequestTTL)}, nil
	}

	if _, err := uc.recoveryRepo.CancelActiveByUserID(ctx, account.ID, now); err != nil {
		uc.logger.Errorw("failed to cancel prior recovery requests", "error", err, "user_id", account.ID)
		return nil, fmt.Errorf("failed to cancel prior recovery requests: %w", err)
	}

	mfaRequired, phone, err := uc.mfaProfile(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	phoneHint := ""
	if phone != "" {
		phoneHint = utils.MaskPhone(phone)
	}

	request, err := recovery.NewRequest(
		account.ID,
		cmd.Email,
		mfaRequired,
		phone,
		phoneHint,
		uc.config.MaxStepAttempts,
		recovery.ClientContext{IP: cmd.IP, UserAgent: cmd.UserAgent},
		uc.config.RequestTTL,
		id.NewRecoveryRequestID,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recovery request: %w", err)
	}

	if err := uc.recoveryRepo.Create(ctx, request); err != nil {
		uc.logger.Errorw("failed to store recovery request", "error", err, "user_id", account.ID)
		return nil, fmt.Errorf("failed to store recovery request: %w", err)
	}

	userID := account.ID
	if _, err := uc.issueCode.Execute(ctx, otpusecases.IssueCodeCommand{
		UserID:  &userID,
		Target:  cmd.Email,
		Channel: otp.ChannelEmail,
		Purpose: otp.PurposeRecoveryEmail,
	}); err != nil {
		uc.logger.Errorw("failed to issue recovery email code", "error", err, "request_id", request.SID())
		return nil, err
	}

	uc.logger.Infow("account recovery started",
		"request_id", request.SID(),
		"user_id", account.ID,
		"mfa_required", mfaRequired,
		"email", utils.MaskEmail(cmd.Email),
	)

	return &StartRecoveryResult{RequestID: request.SID(), ExpiresAt: request.ExpiresAt()}, nil
}

// mfaProfile decides whether recovery needs a second factor and which phone
// number to use for it.
func (uc *StartRecoveryUseCase) mfaProfile(ctx context.Context, userID uint) (bool, string, error) {
	methods, err := uc.methodRepo.FindByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list authentication methods", "error", err, "user_id", userID)
		return false, "", fmt.Errorf("failed to list authentication methods: %w", err)
	}

	mfaRequired := false
	phone := ""
	for _, m := range methods {
		if !m.IsConfigured() {
			continue
		}
		if m.Variant().CountsTowardMFA() {
			mfaRequired = true
		}
		if m.Variant() == authmethod.VariantSMSOTP && phone == "" {
			phone = m.Payload().SMSOTP.PhoneNumber
		}
	}
	return mfaRequired, phone, nil
}
