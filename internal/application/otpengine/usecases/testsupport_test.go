package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

// memCodeRepo is an in-memory otp.Repository for use case tests. The fault
// knobs let tests lose conditional writes or fail inserts.
type memCodeRepo struct {
	mu             sync.Mutex
	nextID         uint
	codes          []*otp.Code
	createErr      error
	failIncrements int
	incrementCalls int
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{}
}

func (r *memCodeRepo) Create(ctx context.Context, code *otp.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	if err := code.SetID(r.nextID); err != nil {
		return err
	}
	r.codes = append(r.codes, code)
	return nil
}

func (r *memCodeRepo) FindActive(ctx context.Context, target string, purpose otp.Purpose, now time.Time) (*otp.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := r.codes[i]
		if c.Target() == target && c.Purpose() == purpose && c.IsActive(now) {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCodeRepo) FindLatest(ctx context.Context, target string, purpose otp.Purpose) (*otp.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		c := r.codes[i]
		if c.Target() == target && c.Purpose() == purpose {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCodeRepo) CountIssuedSince(ctx context.Context, target string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.codes {
		if c.Target() == target && c.CreatedAt().After(since) {
			n++
		}
	}
	return n, nil
}

func (r *memCodeRepo) IncrementAttempts(ctx context.Context, id uint, fromAttempts int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incrementCalls++
	if r.failIncrements > 0 {
		r.failIncrements--
		return false, nil
	}
	for _, c := range r.codes {
		if c.ID() == id {
			// The entity already holds the incremented count; accept only
			// when storage still matches the caller's snapshot
			return c.Attempts() == fromAttempts+1 || c.Attempts() == fromAttempts, nil
		}
	}
	return false, nil
}

func (r *memCodeRepo) MarkVerified(ctx context.Context, id uint, consumedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID() == id {
			return c.Verified(), nil
		}
	}
	return false, nil
}

func (r *memCodeRepo) InvalidateActive(ctx context.Context, target string, purpose otp.Purpose, exceptID uint, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Target() == target && c.Purpose() == purpose && c.IsActive(now) && c.ID() != exceptID {
			continue
		}
		kept = append(kept, c)
	}
	r.codes = kept
	return nil
}

func (r *memCodeRepo) incrementCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.incrementCalls
}

func (r *memCodeRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.ExpiresAt().Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	r.codes = kept
	return removed, nil
}

// captureDispatcher records dispatched plaintexts instead of delivering them.
type captureDispatcher struct {
	mu    sync.Mutex
	sent  []string
	codes map[string]string // target -> last plaintext
	err   error
}

func newCaptureDispatcher() *captureDispatcher {
	return &captureDispatcher{codes: make(map[string]string)}
}

func (d *captureDispatcher) SendCode(ctx context.Context, channel otp.Channel, target, code string, purpose otp.Purpose) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, target)
	d.codes[target] = code
	return nil
}

func (d *captureDispatcher) lastCode(target string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[target]
}

func (d *captureDispatcher) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// waitForDispatch polls until the dispatcher has recorded a code for target.
func waitForDispatch(d *captureDispatcher, target string) string {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if code := d.lastCode(target); code != "" {
			return code
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ""
}
