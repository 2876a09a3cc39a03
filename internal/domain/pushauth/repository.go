package pushauth

import (
	"context"
	"time"
)

// Repository defines persistence operations for push authentication
// requests. Find methods return (nil, nil) when no record matches.
type Repository interface {
	Create(ctx context.Context, request *Request) error
	FindBySID(ctx context.Context, sid string) (*Request, error)
	FindPendingByUserID(ctx context.Context, userID uint) ([]*Request, error)
	// UpdateStatus applies the transition recorded on the entity with a
	// write conditional on the row still being PENDING. It returns false
	// when a concurrent responder won.
	UpdateStatus(ctx context.Context, request *Request) (bool, error)
	// IncrementNotificationsSent bumps the dispatch counter without
	// touching the status.
	IncrementNotificationsSent(ctx context.Context, id uint, now time.Time) error
	// MarkExpiredBefore transitions all PENDING requests whose deadline
	// passed before cutoff to EXPIRED and returns the number transitioned.
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
