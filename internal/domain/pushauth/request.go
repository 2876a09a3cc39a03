package pushauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a push authentication request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDenied    Status = "DENIED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// Purpose identifies why the push approval was requested.
type Purpose string

const (
	PurposeSignIn   Purpose = "signin"
	PurposeMFA      Purpose = "mfa"
	PurposeRecovery Purpose = "recovery"
)

// IsValid reports whether the purpose is one of the known kinds.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeSignIn, PurposeMFA, PurposeRecovery:
		return true
	}
	return false
}

var (
	// ErrNotPending is returned when responding to a request already in a
	// terminal state.
	ErrNotPending = errors.New("push request is not pending")
	// ErrExpired is returned when responding after the request deadline.
	ErrExpired = errors.New("push request expired")
	// ErrChallengeMismatch is returned when the presented challenge token
	// does not match.
	ErrChallengeMismatch = errors.New("push challenge token mismatch")
)

const challengeBytes = 32

// ClientContext describes where the authentication attempt came from, shown
// to the user on the approving device.
type ClientContext struct {
	IP        string
	UserAgent string
	Location  string
}

// Request is one pending question to the user's enrolled devices: "is this
// sign-in you?". It resolves exactly once.
type Request struct {
	id                uint
	sid               string // external API identifier (pa_xxx)
	userID            uint
	status            Status
	purpose           Purpose
	challenge         string // base64url token echoed back by the approving device
	clientContext     ClientContext
	notificationsSent int
	approvedBySID     string // SID of the push method that resolved the request
	recoverySID       string // optional link to a recovery request
	respondedAt       *time.Time
	createdAt         time.Time
	expiresAt         time.Time
	updatedAt         time.Time
}

// NewRequest creates a pending push request with a fresh challenge token.
func NewRequest(
	userID uint,
	purpose Purpose,
	clientContext ClientContext,
	recoverySID string,
	ttl time.Duration,
	sidGenerator func() (string, error),
	now time.Time,
) (*Request, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !purpose.IsValid() {
		return nil, fmt.Errorf("invalid push purpose: %s", purpose)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("push request TTL must be positive")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	raw := make([]byte, challengeBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate challenge token: %w", err)
	}

	return &Request{
		sid:           sid,
		userID:        userID,
		status:        StatusPending,
		purpose:       purpose,
		challenge:     base64.RawURLEncoding.EncodeToString(raw),
		clientContext: clientContext,
		recoverySID:   recoverySID,
		createdAt:     now,
		expiresAt:     now.Add(ttl),
		updatedAt:     now,
	}, nil
}

// ReconstructRequest reconstructs a push request from persistence
func ReconstructRequest(
	id uint,
	sid string,
	userID uint,
	status Status,
	purpose Purpose,
	challenge string,
	clientContext ClientContext,
	notificationsSent int,
	approvedBySID string,
	recoverySID string,
	respondedAt *time.Time,
	createdAt time.Time,
	expiresAt time.Time,
	updatedAt time.Time,
) (*Request, error) {
	if id == 0 {
		return nil, fmt.Errorf("push request ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("push request SID is required")
	}

	return &Request{
		id:                id,
		sid:               sid,
		userID:            userID,
		status:            status,
		purpose:           purpose,
		challenge:         challenge,
		clientContext:     clientContext,
		notificationsSent: notificationsSent,
		approvedBySID:     approvedBySID,
		recoverySID:       recoverySID,
		respondedAt:       respondedAt,
		createdAt:         createdAt,
		expiresAt:         expiresAt,
		updatedAt:         updatedAt,
	}, nil
}

// ID returns the internal ID
func (r *Request) ID() uint {
	return r.id
}

// SID returns the external SID (pa_xxx)
func (r *Request) SID() string {
	return r.sid
}

// UserID returns the user being authenticated
func (r *Request) UserID() uint {
	return r.userID
}

// Status returns the lifecycle state
func (r *Request) Status() Status {
	return r.status
}

// Purpose returns why approval was requested
func (r *Request) Purpose() Purpose {
	return r.purpose
}

// Challenge returns the challenge token
func (r *Request) Challenge() string {
	return r.challenge
}

// ClientContext returns the originating client context
func (r *Request) ClientContext() ClientContext {
	return r.clientContext
}

// NotificationsSent returns how many device notifications were dispatched
func (r *Request) NotificationsSent() int {
	return r.notificationsSent
}

// ApprovedBySID returns the SID of the method that resolved the request
func (r *Request) ApprovedBySID() string {
	return r.approvedBySID
}

// RecoverySID returns the linked recovery request SID, if any
func (r *Request) RecoverySID() string {
	return r.recoverySID
}

// RespondedAt returns when the request was resolved
func (r *Request) RespondedAt() *time.Time {
	return r.respondedAt
}

// CreatedAt returns when the request was initiated
func (r *Request) CreatedAt() time.Time {
	return r.createdAt
}

// ExpiresAt returns the response deadline
func (r *Request) ExpiresAt() time.Time {
	return r.expiresAt
}

// UpdatedAt returns when the request was last modified
func (r *Request) UpdatedAt() time.Time {
	return r.updatedAt
}

// IsExpired reports whether the response deadline has passed.
func (r *Request) IsExpired(now time.Time) bool {
	return !now.Before(r.expiresAt)
}

// MatchesChallenge compares the presented token in constant time.
func (r *Request) MatchesChallenge(token string) bool {
	return subtle.ConstantTimeCompare([]byte(r.challenge), []byte(token)) == 1
}

// RecordNotification counts one dispatched device notification.
func (r *Request) RecordNotification(now time.Time) {
	r.notificationsSent++
	r.updatedAt = now
}

func (r *Request) respond(status Status, token, methodSID string, now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	if r.IsExpired(now) {
		return ErrExpired
	}
	if !r.MatchesChallenge(token) {
		return ErrChallengeMismatch
	}
	r.status = status
	r.approvedBySID = methodSID
	r.respondedAt = &now
	r.updatedAt = now
	return nil
}

// Approve resolves the request positively. The presented challenge token
// must match and the request must still be pending and unexpired.
func (r *Request) Approve(token, methodSID string, now time.Time) error {
	return r.respond(StatusApproved, token, methodSID, now)
}

// Deny resolves the request negatively under the same preconditions as
// Approve.
func (r *Request) Deny(token, methodSID string, now time.Time) error {
	return r.respond(StatusDenied, token, methodSID, now)
}

// MarkExpired transitions a pending request past its deadline to EXPIRED.
func (r *Request) MarkExpired(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusExpired
	r.updatedAt = now
	return nil
}

// Cancel withdraws a pending request.
func (r *Request) Cancel(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusCancelled
	r.respondedAt = &now
	r.updatedAt = now
	return nil
}

// SetID sets the internal ID (only for persistence layer use)
func (r *Request) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("push request ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("push request ID cannot be zero")
	}
	r.id = id
	return nil
}
