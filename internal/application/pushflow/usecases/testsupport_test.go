package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/domain/pushauth"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type pushSnapshot struct {
	id          uint
	sid         string
	userID      uint
	status      pushauth.Status
	purpose     pushauth.Purpose
	challenge   string
	clientCtx   pushauth.ClientContext
	sent        int
	approvedBy  string
	recoverySID string
	respondedAt *time.Time
	createdAt   time.Time
	expiresAt   time.Time
	updatedAt   time.Time
}

// memPushRepo stores snapshots and reconstructs fresh entities on every
// read, so conditional-write races behave like they do against a database.
type memPushRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*pushSnapshot
}

func newMemPushRepo() *memPushRepo {
	return &memPushRepo{rows: make(map[uint]*pushSnapshot)}
}

func snapshotOf(r *pushauth.Request) *pushSnapshot {
	return &pushSnapshot{
		id:          r.ID(),
		sid:         r.SID(),
		userID:      r.UserID(),
		status:      r.Status(),
		purpose:     r.Purpose(),
		challenge:   r.Challenge(),
		clientCtx:   r.ClientContext(),
		sent:        r.NotificationsSent(),
		approvedBy:  r.ApprovedBySID(),
		recoverySID: r.RecoverySID(),
		respondedAt: r.RespondedAt(),
		createdAt:   r.CreatedAt(),
		expiresAt:   r.ExpiresAt(),
		updatedAt:   r.UpdatedAt(),
	}
}

func (s *pushSnapshot) toEntity() *pushauth.Request {
	r, err := pushauth.ReconstructRequest(
		s.id, s.sid, s.userID, s.status, s.purpose, s.challenge, s.clientCtx,
		s.sent, s.approvedBy, s.recoverySID, s.respondedAt, s.createdAt, s.expiresAt, s.updatedAt,
	)
	if err != nil {
		panic(err)
	}
	return r
}

func (m *memPushRepo) Create(ctx context.Context, r *pushauth.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if err := r.SetID(m.nextID); err != nil {
		return err
	}
	m.rows[r.ID()] = snapshotOf(r)
	return nil
}

func (m *memPushRepo) FindBySID(ctx context.Context, sid string) (*pushauth.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.sid == sid {
			return s.toEntity(), nil
		}
	}
	return nil, nil
}

func (m *memPushRepo) FindPendingByUserID(ctx context.Context, userID uint) ([]*pushauth.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*pushauth.Request
	for _, s := range m.rows {
		if s.userID == userID && s.status == pushauth.StatusPending {
			out = append(out, s.toEntity())
		}
	}
	return out, nil
}

func (m *memPushRepo) UpdateStatus(ctx context.Context, r *pushauth.Request) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[r.ID()]
	if !ok || s.status != pushauth.StatusPending {
		return false, nil
	}
	m.rows[r.ID()] = snapshotOf(r)
	return true, nil
}

func (m *memPushRepo) IncrementNotificationsSent(ctx context.Context, id uint, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		s.sent++
		s.updatedAt = now
	}
	return nil
}

func (m *memPushRepo) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if s.status == pushauth.StatusPending && !s.expiresAt.After(cutoff) {
			s.status = pushauth.StatusExpired
			s.updatedAt = cutoff
			n++
		}
	}
	return n, nil
}

func (m *memPushRepo) notificationsSent(sid string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.sid == sid {
			return s.sent
		}
	}
	return 0
}

type memMethodRepo struct {
	mu      sync.Mutex
	nextID  uint
	methods []*authmethod.Method
}

func (r *memMethodRepo) Create(ctx context.Context, m *authmethod.Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if err := m.SetID(r.nextID); err != nil {
		return err
	}
	r.methods = append(r.methods, m)
	return nil
}

func (r *memMethodRepo) Update(ctx context.Context, m *authmethod.Method) error { return nil }

func (r *memMethodRepo) FindBySID(ctx context.Context, sid string) (*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods {
		if m.SID() == sid {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memMethodRepo) FindByUserID(ctx context.Context, userID uint) ([]*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authmethod.Method
	for _, m := range r.methods {
		if m.UserID() == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMethodRepo) FindByUserIDAndVariant(ctx context.Context, userID uint, variant authmethod.Variant) ([]*authmethod.Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authmethod.Method
	for _, m := range r.methods {
		if m.UserID() == userID && m.Variant() == variant {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMethodRepo) FindByCredentialID(ctx context.Context, credentialID []byte) (*authmethod.Method, error) {
	return nil, nil
}

func (r *memMethodRepo) ExistsByUserVariantTarget(ctx context.Context, userID uint, variant authmethod.Variant, targetKey string) (bool, error) {
	return false, nil
}

func (r *memMethodRepo) Delete(ctx context.Context, id uint) error { return nil }

// captureSender records notices; fail makes every delivery error out.
type captureSender struct {
	mu      sync.Mutex
	notices []AuthNotice
	fail    bool
}

func (s *captureSender) SendAuthNotice(ctx context.Context, sub PushSubscription, notice AuthNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.notices = append(s.notices, notice)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func (s *captureSender) lastNotice() (AuthNotice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notices) == 0 {
		return AuthNotice{}, false
	}
	return s.notices[len(s.notices)-1], true
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
