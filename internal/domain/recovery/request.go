package recovery

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a recovery request.
type Status string

const (
	StatusPendingEmail Status = "PENDING_EMAIL"
	StatusPendingSMS   Status = "PENDING_SMS"
	StatusCompleted    Status = "COMPLETED"
	StatusExpired      Status = "EXPIRED"
	StatusCancelled    Status = "CANCELLED"
)

// IsActive reports whether the request can still progress.
func (s Status) IsActive() bool {
	return s == StatusPendingEmail || s == StatusPendingSMS
}

var (
	// ErrInvalidState is returned when an operation does not match the
	// request's current step.
	ErrInvalidState = errors.New("recovery request is not in the required state")
	// ErrExpired is returned when operating on a request past its deadline.
	ErrExpired = errors.New("recovery request expired")
	// ErrStepAttemptsExceeded is returned when a verification step's
	// attempt budget is spent.
	ErrStepAttemptsExceeded = errors.New("recovery step attempts exceeded")
	// ErrNotReady is returned when requesting a token before all required
	// verifications passed.
	ErrNotReady = errors.New("recovery request is not ready for a token")
	// ErrTokenAlreadyIssued is returned when a completed request is asked
	// for a second token.
	ErrTokenAlreadyIssued = errors.New("recovery token already issued")
)

// ClientContext records where the recovery attempt came from.
type ClientContext struct {
	IP        string
	UserAgent string
}

// Request tracks one account-recovery attempt through its verification
// steps: email proof first, then SMS proof when the account has other
// MFA factors enrolled.
type Request struct {
	id                    uint
	sid                   string // external API identifier (rr_xxx)
	userID                uint
	email                 string
	status                Status
	emailVerified         bool
	smsVerified           bool
	mfaRequired           bool
	phoneNumber           string // E.164, empty when no verified SMS method exists
	phoneHint             string // masked form safe to return to the caller
	emailAttempts         int
	smsAttempts           int
	maxStepAttempts       int
	usedForAuthentication bool
	clientContext         ClientContext
	completedAt           *time.Time
	createdAt             time.Time
	expiresAt             time.Time
	updatedAt             time.Time
}

// NewRequest creates a recovery request in the PENDING_EMAIL step.
func NewRequest(
	userID uint,
	email string,
	mfaRequired bool,
	phoneNumber string,
	phoneHint string,
	maxStepAttempts int,
	clientContext ClientContext,
	ttl time.Duration,
	sidGenerator func() (string, error),
	now time.Time,
) (*Request, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if maxStepAttempts <= 0 {
		return nil, fmt.Errorf("max step attempts must be positive")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("recovery request TTL must be positive")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	return &Request{
		sid:             sid,
		userID:          userID,
		email:           email,
		status:          StatusPendingEmail,
		mfaRequired:     mfaRequired,
		phoneNumber:     phoneNumber,
		phoneHint:       phoneHint,
		maxStepAttempts: maxStepAttempts,
		clientContext:   clientContext,
		createdAt:       now,
		expiresAt:       now.Add(ttl),
		updatedAt:       now,
	}, nil
}

// ReconstructRequest reconstructs a recovery request from persistence
func ReconstructRequest(
	id uint,
	sid string,
	userID uint,
	email string,
	status Status,
	emailVerified bool,
	smsVerified bool,
	mfaRequired bool,
	phoneNumber string,
	phoneHint string,
	emailAttempts int,
	smsAttempts int,
	maxStepAttempts int,
	usedForAuthentication bool,
	clientContext ClientContext,
	completedAt *time.Time,
	createdAt time.Time,
	expiresAt time.Time,
	updatedAt time.Time,
) (*Request, error) {
	if id == 0 {
		return nil, fmt.Errorf("recovery request ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("recovery request SID is required")
	}

	return &Request{
		id:                    id,
		sid:                   sid,
		userID:                userID,
		email:                 email,
		status:                status,
		emailVerified:         emailVerified,
		smsVerified:           smsVerified,
		mfaRequired:           mfaRequired,
		phoneNumber:           phoneNumber,
		phoneHint:             phoneHint,
		emailAttempts:         emailAttempts,
		smsAttempts:           smsAttempts,
		maxStepAttempts:       maxStepAttempts,
		usedForAuthentication: usedForAuthentication,
		clientContext:         clientContext,
		completedAt:           completedAt,
		createdAt:             createdAt,
		expiresAt:             expiresAt,
		updatedAt:             updatedAt,
	}, nil
}

// ID returns the internal ID
func (r *Request) ID() uint {
	return r.id
}

// SID returns the external SID (rr_xxx)
func (r *Request) SID() string {
	return r.sid
}

// UserID returns the user being recovered
func (r *Request) UserID() uint {
	return r.userID
}

// Email returns the account email
func (r *Request) Email() string {
	return r.email
}

// Status returns the lifecycle state
func (r *Request) Status() Status {
	return r.status
}

// EmailVerified reports whether the email step passed
func (r *Request) EmailVerified() bool {
	return r.emailVerified
}

// SMSVerified reports whether the SMS step passed
func (r *Request) SMSVerified() bool {
	return r.smsVerified
}

// MFARequired reports whether an SMS step is required
func (r *Request) MFARequired() bool {
	return r.mfaRequired
}

// PhoneNumber returns the SMS step target
func (r *Request) PhoneNumber() string {
	return r.phoneNumber
}

// PhoneHint returns the masked phone number
func (r *Request) PhoneHint() string {
	return r.phoneHint
}

// EmailAttempts returns failed candidates on the email step
func (r *Request) EmailAttempts() int {
	return r.emailAttempts
}

// SMSAttempts returns failed candidates on the SMS step
func (r *Request) SMSAttempts() int {
	return r.smsAttempts
}

// MaxStepAttempts returns the per-step attempt budget
func (r *Request) MaxStepAttempts() int {
	return r.maxStepAttempts
}

// UsedForAuthentication reports whether a recovery token was issued
func (r *Request) UsedForAuthentication() bool {
	return r.usedForAuthentication
}

// ClientContext returns the originating client context
func (r *Request) ClientContext() ClientContext {
	return r.clientContext
}

// CompletedAt returns when the request completed
func (r *Request) CompletedAt() *time.Time {
	return r.completedAt
}

// CreatedAt returns when recovery was started
func (r *Request) CreatedAt() time.Time {
	return r.createdAt
}

// ExpiresAt returns the request deadline
func (r *Request) ExpiresAt() time.Time {
	return r.expiresAt
}

// UpdatedAt returns when the request was last modified
func (r *Request) UpdatedAt() time.Time {
	return r.updatedAt
}

// IsExpired reports whether the request deadline has passed.
func (r *Request) IsExpired(now time.Time) bool {
	return !now.Before(r.expiresAt)
}

// RequiresSMSStep reports whether this request must pass the SMS step. An
// MFA account with no recovery phone on file (TOTP- or passkey-only
// enrollment) falls back to email-only, otherwise it could never finish.
func (r *Request) RequiresSMSStep() bool {
	return r.mfaRequired && r.phoneNumber != ""
}

// IsReadyForToken reports whether all required verifications passed.
func (r *Request) IsReadyForToken() bool {
	if !r.emailVerified {
		return false
	}
	if r.RequiresSMSStep() && !r.smsVerified {
		return false
	}
	return true
}

// CheckEmailStep validates that an email-code verification may proceed.
func (r *Request) CheckEmailStep(now time.Time) error {
	if r.status != StatusPendingEmail {
		return ErrInvalidState
	}
	if r.IsExpired(now) {
		return ErrExpired
	}
	if r.emailAttempts >= r.maxStepAttempts {
		return ErrStepAttemptsExceeded
	}
	return nil
}

// CheckSMSStep validates that an SMS-code verification may proceed.
func (r *Request) CheckSMSStep(now time.Time) error {
	if r.status != StatusPendingSMS {
		return ErrInvalidState
	}
	if r.IsExpired(now) {
		return ErrExpired
	}
	if r.smsAttempts >= r.maxStepAttempts {
		return ErrStepAttemptsExceeded
	}
	return nil
}

// RecordEmailFailure counts one failed email-step candidate.
func (r *Request) RecordEmailFailure(now time.Time) {
	r.emailAttempts++
	r.updatedAt = now
}

// RecordSMSFailure counts one failed SMS-step candidate.
func (r *Request) RecordSMSFailure(now time.Time) {
	r.smsAttempts++
	r.updatedAt = now
}

// ResetEmailAttempts clears the email step counter when a fresh code is
// sent.
func (r *Request) ResetEmailAttempts(now time.Time) {
	r.emailAttempts = 0
	r.updatedAt = now
}

// ResetSMSAttempts clears the SMS step counter when a fresh code is sent.
func (r *Request) ResetSMSAttempts(now time.Time) {
	r.smsAttempts = 0
	r.updatedAt = now
}

// MarkEmailVerified records a passed email step. When an SMS factor is
// required and a phone number is on file, the request advances to the
// PENDING_SMS step; otherwise it becomes ready for a token.
func (r *Request) MarkEmailVerified(now time.Time) error {
	if r.status != StatusPendingEmail {
		return ErrInvalidState
	}
	r.emailVerified = true
	if r.RequiresSMSStep() {
		r.status = StatusPendingSMS
	}
	r.updatedAt = now
	return nil
}

// MarkSMSVerified records a passed SMS step.
func (r *Request) MarkSMSVerified(now time.Time) error {
	if r.status != StatusPendingSMS {
		return ErrInvalidState
	}
	r.smsVerified = true
	r.updatedAt = now
	return nil
}

// Complete finishes the request and burns it for authentication. A request
// yields at most one recovery token.
func (r *Request) Complete(now time.Time) error {
	if r.usedForAuthentication {
		return ErrTokenAlreadyIssued
	}
	if !r.status.IsActive() {
		return ErrInvalidState
	}
	if r.IsExpired(now) {
		return ErrExpired
	}
	if !r.IsReadyForToken() {
		return ErrNotReady
	}
	r.status = StatusCompleted
	r.usedForAuthentication = true
	r.completedAt = &now
	r.updatedAt = now
	return nil
}

// MarkExpired transitions an active request past its deadline to EXPIRED.
func (r *Request) MarkExpired(now time.Time) error {
	if !r.status.IsActive() {
		return ErrInvalidState
	}
	r.status = StatusExpired
	r.updatedAt = now
	return nil
}

// Cancel withdraws an active request.
func (r *Request) Cancel(now time.Time) error {
	if !r.status.IsActive() {
		return ErrInvalidState
	}
	r.status = StatusCancelled
	r.updatedAt = now
	return nil
}

// SetID sets the internal ID (only for persistence layer use)
func (r *Request) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("recovery request ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("recovery request ID cannot be zero")
	}
	r.id = id
	return nil
}
