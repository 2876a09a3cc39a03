package recovery

import (
	"context"
	"time"
)

// Repository defines persistence operations for recovery requests.
// Find methods return (nil, nil) when no record matches.
type Repository interface {
	Create(ctx context.Context, request *Request) error
	FindBySID(ctx context.Context, sid string) (*Request, error)
	FindActiveByUserID(ctx context.Context, userID uint) ([]*Request, error)
	// Update persists entity changes that do not race: attempt counters,
	// verification flags, step advances.
	Update(ctx context.Context, request *Request) error
	// CompleteOnce applies the COMPLETED transition with a write
	// conditional on the row not yet being used for authentication. It
	// returns false when a concurrent caller already took the token.
	CompleteOnce(ctx context.Context, request *Request) (bool, error)
	// CancelActiveByUserID withdraws all active requests for the user and
	// returns the number cancelled.
	CancelActiveByUserID(ctx context.Context, userID uint, now time.Time) (int64, error)
	// MarkExpiredBefore transitions active requests whose deadline passed
	// before cutoff to EXPIRED and returns the number transitioned.
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
