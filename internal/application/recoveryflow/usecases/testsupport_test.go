package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veridian-id/veridian/internal/domain/authmethod"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/domain/recovery"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

type recoverySnapshot struct {
	id              uint
	sid             string
	userID          uint
	email           string
	status          recovery.Status
	emailVerified   bool
	smsVerified     bool
	mfaRequired     bool
	phoneNumber     string
	phoneHint       string
	emailAttempts   int
	smsAttempts     int
	maxStepAttempts int
	used            bool
	clientCtx       recovery.ClientContext
	completedAt     *time.Time
	createdAt       time.Time
	expiresAt       time.Time
	updatedAt       time.Time
}

// memRecoveryRepo stores snapshots and reconstructs fresh entities on every
// read, so conditional writes behave like they do against a database.
type memRecoveryRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*recoverySnapshot
}

func newMemRecoveryRepo() *memRecoveryRepo {
	return &memRecoveryRepo{rows: make(map[uint]*recoverySnapshot)}
}

func snapshotOf(r *recovery.Request) *recoverySnapshot {
	return &recoverySnapshot{
		id:              r.ID(),
		sid:             r.SID(),
		userID:          r.UserID(),
		email:           r.Email(),
		status:          r.Status(),
		emailVerified:   r.EmailVerified(),
		smsVerified:     r.SMSVerified(),
		mfaRequired:     r.MFARequired(),
		phoneNumber:     r.PhoneNumber(),
		phoneHint:       r.PhoneHint(),
		emailAttempts:   r.EmailAttempts(),
		smsAttempts:     r.SMSAttempts(),
		maxStepAttempts: r.MaxStepAttempts(),
		used:            r.UsedForAuthentication(),
		clientCtx:       r.ClientContext(),
		completedAt:     r.CompletedAt(),
		createdAt:       r.CreatedAt(),
		expiresAt:       r.ExpiresAt(),
		updatedAt:       r.UpdatedAt(),
	}
}

func (s *recoverySnapshot) toEntity() *recovery.Request {
	r, err := recovery.ReconstructRequest(
		s.id, s.sid, s.userID, s.email, s.status,
		s.emailVerified, s.smsVerified, s.mfaRequired,
		s.phoneNumber, s.phoneHint,
		s.emailAttempts, s.smsAttempts, s.maxStepAttempts,
		s.used, s.clientCtx, s.completedAt,
		s.createdAt, s.expiresAt, s.updatedAt,
	)
	if err != nil {
		panic(err)
	}
	return r
}

func (m *memRecoveryRepo) Create(ctx context.Context, r *recovery.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if err := r.SetID(m.nextID); err != nil {
		return err
	}
	m.rows[r.ID()] = snapshotOf(r)
	return nil
}

func (m *memRecoveryRepo) FindBySID(ctx context.Context, sid string) (*recovery.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.sid == sid {
			return s.toEntity(), nil
		}
	}
	return nil, nil
}

func (m *memRecoveryRepo) FindActiveByUserID(ctx context.Context, userID uint) ([]*recovery.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*recovery.Request
	for _, s := range m.rows {
		if s.userID == userID && s.status.IsActive() {
			out = append(out, s.toEntity())
		}
	}
	return out, nil
}

func (m *memRecoveryRepo) Update(ctx context.Context, r *recovery.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID()]; ok {
		m.rows[r.ID()] = snapshotOf(r)
	}
	return nil
}

func (m *memRecoveryRepo) CompleteOnce(ctx context.Context, r *recovery.Request) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[r.ID()]
	if !ok || s.used || !s.status.IsActive() {
		return false, nil
	}
	m.rows[r.ID()] = snapshotOf(r)
	return true, nil
}

func (m *memRecoveryRepo) CancelActiveByUserID(ctx context.Context, userID uint, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if s.userID == userID && s.status.IsActive() {
			s.status = recovery.StatusCancelled
			s.updatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *memRecoveryRepo) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if s.status.IsActive() && !s.expiresAt.After(cutoff) {
			s.status = recovery.StatusExpired
			s.updatedAt = cutoff
			n++
		}
	}
	return n, nil
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

// memCodeRepo is an in-memory otp.Repository for recovery flow tests.
type memCodeRepo struct {
	mu     sync.Mutex
	nextID uint
	codes  []*otp.Code
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{}
}

func (r *memCodeRepo) Create(ctx context.Context, code *otp.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	for _, c := range r.codes {
		if c.ID() == id {
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
	codes map[string]string // target -> last plaintext
}

func newCaptureDispatcher() *captureDispatcher {
	return &captureDispatcher{codes: make(map[string]string)}
}

func (d *captureDispatcher) SendCode(ctx context.Context, channel otp.Channel, target, code string, purpose otp.Purpose) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[target] = code
	return nil
}

func (d *captureDispatcher) lastCode(target string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[target]
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

type stubDirectory struct {
	accounts map[string]*UserAccount
}

func (d *stubDirectory) FindByEmail(ctx context.Context, email string) (*UserAccount, error) {
	return d.accounts[email], nil
}

type stubGate struct {
	allow bool
}

func (g *stubGate) AllowStart(ctx context.Context, email, ip string) (bool, error) {
	return g.allow, nil
}

type stubTokenIssuer struct {
	issued int
}

func (i *stubTokenIssuer) Issue(userID uint, requestSID string) (string, time.Time, error) {
	i.issued++
	return "recovery-token-" + requestSID, time.Now().Add(15 * time.Minute), nil
}
