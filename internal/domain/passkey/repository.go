package passkey

import (
	"context"
	"time"
)

// Repository defines persistence operations for passkey challenges.
// Find methods return (nil, nil) when no record matches.
type Repository interface {
	Create(ctx context.Context, challenge *Challenge) error
	FindByValue(ctx context.Context, value string) (*Challenge, error)
	// ConsumeByValue atomically marks the challenge used. It returns false
	// when the challenge was already consumed by a concurrent caller.
	ConsumeByValue(ctx context.Context, value string, usedAt time.Time) (bool, error)
	// DeleteExpired removes challenges whose deadline passed before cutoff
	// and returns the number removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
