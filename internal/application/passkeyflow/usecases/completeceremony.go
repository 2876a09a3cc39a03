package usecases

import (
	"context"
	"fmt"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/domain/passkey"
	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/errors"
	"github.com/veridian-id/veridian/internal/shared/logger"
	"github.com/veridian-id/veridian/internal/shared/utils"
)

type CompleteCeremonyCommand struct {
	ChallengeValue    string
	CredentialID      []byte
	AuthenticatorData []byte
	ClientDataJSON    []byte
	Signature         []byte
}

type CompleteCeremonyResult struct {
	UserID    uint
	MethodSID string
	Purpose   passkey.Purpose
}

// CompleteCeremonyUseCase finishes an authentication ceremony: resolve the
// credential, check the assertion signature, then consume the challenge
// exactly once.
type CompleteCeremonyUseCase struct {
	challengeRepo passkey.Repository
	methodRepo    authmethod.Repository
	verifier      passkey.SignatureVerifier
	clock         clock.Clock
	logger        logger.Interface
}

func NewCompleteCeremonyUseCase(
	challengeRepo passkey.Repository,
	methodRepo authmethod.Repository,
	verifier passkey.SignatureVerifier,
	clk clock.Clock,
	logger logger.Interface,
) *CompleteCeremonyUseCase {
	return &CompleteCeremonyUseCase{
		challengeRepo: challengeRepo,
		methodRepo:    methodRepo,
		verifier:      verifier,
		clock:         clk,
		logger:        logger,
	}
}

func (uc *CompleteCeremonyUseCase) Execute(ctx context.Context, cmd CompleteCeremonyCommand) (*CompleteCeremonyResult, error) {
	if cmd.ChallengeValue == "" || len(cmd.CredentialID) == 0 {
		return nil, errors.NewValidationError("challenge and credential ID are required")
	}
	if len(cmd.AuthenticatorData) == 0 || len(cmd.ClientDataJSON) == 0 || len(cmd.Signature) == 0 {
		return nil, errors.NewValidationError("assertion data is incomplete")
	}

	now := uc.clock.Now()

	// Credential resolution is a global indexed lookup; the authenticating
	// user is whoever owns the credential
	method, err := uc.methodRepo.FindByCredentialID(ctx, cmd.CredentialID)
	if err != nil {
		uc.logger.Errorw("failed to resolve credential", "error", err)
		return nil, fmt.Errorf("failed to resolve credential: %w", err)
	}
	if method == nil || !method.IsConfigured() {
		// Same answer for unknown, disabled, and unverified credentials
		return nil, errors.NewUnauthorizedError("authentication failed")
	}

	if err := uc.verifier.Verify(
		method.Payload().Passkey.PublicKey,
		cmd.AuthenticatorData,
		cmd.ClientDataJSON,
		cmd.Signature,
	); err != nil {
		uc.logger.Warnw("passkey signature verification failed",
			"method_id", method.SID(),
			"error", err,
		)
		return nil, errors.NewUnauthorizedError("authentication failed")
	}

	challenge, err := uc.challengeRepo.FindByValue(ctx, cmd.ChallengeValue)
	if err != nil {
		uc.logger.Errorw("failed to load challenge", "error", err)
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.NewNotFoundError("challenge not found")
	}
	if challenge.Used() {
		return nil, errors.NewAlreadyUsedError("challenge already used")
	}
	if challenge.IsExpired(now) {
		return nil, errors.NewExpiredError("challenge expired")
	}
	if challenge.UserID() != nil && *challenge.UserID() != method.UserID() {
		return nil, errors.NewUnauthorizedError("authentication failed")
	}

	consumed, err := uc.challengeRepo.ConsumeByValue(ctx, cmd.ChallengeValue, now)
	if err != nil {
		uc.logger.Errorw("failed to consume challenge", "error", err, "challenge_id", challenge.SID())
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !consumed {
		// A concurrent completion took the challenge first
		return nil, errors.NewAlreadyUsedError("challenge already used")
	}

	// Sign count and last-used bookkeeping happen after the consume so a
	// replayed assertion can never reach them
	if err := method.UpdateSignCount(parseSignCount(cmd.AuthenticatorData), now); err != nil {
		uc.logger.Warnw("sign count rejected", "method_id", method.SID(), "error", err)
		return nil, errors.NewUnauthorizedError("authentication failed")
	}
	method.MarkUsed(now)

	if err := uc.methodRepo.Update(ctx, method); err != nil {
		uc.logger.Errorw("failed to update method", "error", err, "method_id", method.SID())
		return nil, fmt.Errorf("failed to update method: %w", err)
	}

	uc.logger.Infow("passkey ceremony completed",
		"challenge_id", challenge.SID(),
		"method_id", method.SID(),
		"user_id", method.UserID(),
		"challenge", utils.MaskToken(cmd.ChallengeValue),
	)

	return &CompleteCeremonyResult{
		UserID:    method.UserID(),
		MethodSID: method.SID(),
		Purpose:   challenge.Purpose(),
	}, nil
}

// parseSignCount extracts the signature counter from authenticatorData
// (bytes 33..36 big endian, per the WebAuthn authenticator data layout).
func parseSignCount(authenticatorData []byte) uint32 {
	if len(authenticatorData) < 37 {
		return 0
	}
	b := authenticatorData[33:37]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
