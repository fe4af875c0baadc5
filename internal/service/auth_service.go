package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/study-assistant/internal/models"
	"github.com/study-assistant/internal/repository"
	"github.com/study-assistant/internal/session"
	"github.com/study-assistant/pkg/crypto"
	"github.com/study-assistant/pkg/keygen"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrEmailDelivery      = errors.New("failed to deliver verification email")
)

// OTPSender delivers a one-time code to an email address.
type OTPSender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// AuthService is the gateway for login, OTP-verified registration and
// logout. It owns the only path that creates users.
type AuthService struct {
	userRepo *repository.UserRepository
	sessions *session.Manager
	mailer   OTPSender
	otpTTL   time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo *repository.UserRepository, sessions *session.Manager, mailer OTPSender, otpTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		mailer:   mailer,
		otpTTL:   otpTTL,
	}
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StartRegistrationRequest represents the OTP-send request
type StartRegistrationRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

// Login verifies credentials and moves the session to authenticated. An
// unknown username and a wrong password both return ErrInvalidCredentials;
// the response never reveals which one it was.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, req *LoginRequest) error {
	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := sess.Authenticate(user.ID, user.Username); err != nil {
		return err
	}
	return s.sessions.Save(ctx, sess)
}

// StartRegistration issues a one-time code, emails it, and parks the
// candidate account on the session. Nothing is stored unless the relay
// accepted the mail, so a delivery failure leaves the session unchanged.
// Calling it again replaces any earlier unconfirmed payload.
func (s *AuthService) StartRegistration(ctx context.Context, sess *session.Session, req *StartRegistrationRequest) error {
	if sess.State == session.StateAuthenticated {
		return session.ErrInvalidTransition
	}

	code, err := keygen.OTPCode()
	if err != nil {
		return err
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, req.Email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	now := time.Now()
	pending := &session.PendingRegistration{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		OTPCode:      code,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.otpTTL),
	}
	if err := sess.AwaitOTP(pending); err != nil {
		return err
	}
	return s.sessions.Save(ctx, sess)
}

// CompleteRegistration confirms the candidate code and creates the user.
// The code must match exactly and still be inside its validity window. The
// username may have been taken by another session since the OTP was sent;
// the unique index decides the race and the loser gets ErrUsernameTaken
// with the pending payload intact. On success the payload is consumed and
// the session returns to anonymous; the user logs in separately.
func (s *AuthService) CompleteRegistration(ctx context.Context, sess *session.Session, code string) (*models.User, error) {
	if sess.State != session.StateAwaitingOTP || sess.Pending == nil {
		return nil, ErrInvalidOTP
	}

	pending := sess.Pending
	if pending.Expired(time.Now()) || code != pending.OTPCode {
		return nil, ErrInvalidOTP
	}

	user := &models.User{
		Username:     pending.Username,
		PasswordHash: pending.PasswordHash,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	sess.ClearPending()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout destroys the session; the client starts over anonymous.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	return s.sessions.Destroy(ctx, sess)
}
