package session

import (
	"errors"
	"time"
)

// State is the position of a session in the auth lifecycle.
type State string

const (
	// StateAnonymous is the initial state; no user is attached.
	StateAnonymous State = "anonymous"
	// StateAwaitingOTP means a registration was started and a one-time code
	// is outstanding for this session.
	StateAwaitingOTP State = "awaiting_otp"
	// StateAuthenticated means a login succeeded and UserID is set.
	StateAuthenticated State = "authenticated"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// PendingRegistration is the session-scoped payload held between the OTP
// send and its confirmation. It is never persisted to the database; the
// candidate password is kept only as a digest.
type PendingRegistration struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	OTPCode      string    `json:"otp_code"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the one-time code is past its validity window.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Session is the server-side state for one interactive client. Each session
// is confined to its own client; state is never shared across sessions.
type Session struct {
	ID        string               `json:"id"`
	State     State                `json:"state"`
	UserID    uint                 `json:"user_id,omitempty"`
	Username  string               `json:"username,omitempty"`
	Pending   *PendingRegistration `json:"pending,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Expired reports whether the session itself has lapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AwaitOTP moves the session into awaiting_otp. Re-requesting a code
// silently replaces any prior unconfirmed payload; there is at most one
// pending registration per session.
func (s *Session) AwaitOTP(p *PendingRegistration) error {
	if s.State == StateAuthenticated {
		return ErrInvalidTransition
	}
	s.Pending = p
	s.State = StateAwaitingOTP
	return nil
}

// Authenticate attaches a verified user to the session. Any unfinished
// registration is discarded; a successful login supersedes it.
func (s *Session) Authenticate(userID uint, username string) error {
	if s.State == StateAuthenticated {
		return ErrInvalidTransition
	}
	s.UserID = userID
	s.Username = username
	s.Pending = nil
	s.State = StateAuthenticated
	return nil
}

// ClearPending drops the pending payload and returns an awaiting_otp
// session to anonymous. Completing a registration does not log the user in;
// the client must call login afterwards.
func (s *Session) ClearPending() {
	s.Pending = nil
	if s.State == StateAwaitingOTP {
		s.State = StateAnonymous
	}
}

// Logout detaches the user and returns the session to anonymous.
func (s *Session) Logout() {
	s.UserID = 0
	s.Username = ""
	s.Pending = nil
	s.State = StateAnonymous
}

// clone returns a deep copy so callers never share mutable state with the
// store's own record.
func (s *Session) clone() *Session {
	cp := *s
	if s.Pending != nil {
		p := *s.Pending
		cp.Pending = &p
	}
	return &cp
}
