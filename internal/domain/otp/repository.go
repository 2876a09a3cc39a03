package otp

import (
	"context"
	"time"
)

// Repository defines persistence operations for one-time codes.
// Find methods return (nil, nil) when no record matches.
type Repository interface {
	Create(ctx context.Context, code *Code) error
	// FindActive returns the newest unconsumed, unexpired code for the
	// target and purpose.
	FindActive(ctx context.Context, target string, purpose Purpose, now time.Time) (*Code, error)
	// FindLatest returns the newest code for the target and purpose
	// regardless of state, for cooldown checks.
	FindLatest(ctx context.Context, target string, purpose Purpose) (*Code, error)
	// CountIssuedSince counts codes issued to the target across all
	// purposes after the given instant, for the daily cap.
	CountIssuedSince(ctx context.Context, target string, since time.Time) (int64, error)
	// IncrementAttempts records one failed candidate with a write
	// conditional on the stored attempt count. It returns false when a
	// concurrent verifier already spent that attempt.
	IncrementAttempts(ctx context.Context, id uint, fromAttempts int) (bool, error)
	// MarkVerified consumes the code with a write conditional on it being
	// unconsumed. It returns false when the code was already consumed.
	MarkVerified(ctx context.Context, id uint, consumedAt time.Time) (bool, error)
	// InvalidateActive expires all active codes for the target and
	// purpose except the one identified by exceptID. Issue calls it after
	// the replacement is stored, so a failed insert never strands the
	// target without a usable code.
	InvalidateActive(ctx context.Context, target string, purpose Purpose, exceptID uint, now time.Time) error
	// DeleteExpired removes codes whose deadline passed before cutoff and
	// returns the number removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
