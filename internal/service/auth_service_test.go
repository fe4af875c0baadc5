package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/study-assistant/internal/config"
	"github.com/study-assistant/internal/models"
	"github.com/study-assistant/internal/repository"
	"github.com/study-assistant/internal/session"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	lastTo   string
	lastCode string
	sends    int
	err      error
}

func (f *fakeMailer) SendOTP(_ context.Context, to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sends++
	f.lastTo = to
	f.lastCode = code
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.HistoryEntry{}))
	return db
}

type authFixture struct {
	auth     *AuthService
	sessions *session.Manager
	mailer   *fakeMailer
	users    *repository.UserRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := repository.NewUserRepository(newTestDB(t))
	sessions := session.NewManager(session.NewMemoryStore(), config.SessionConfig{
		Secret:   "test-secret",
		TTLHours: 1,
	})
	mailer := &fakeMailer{}

	return &authFixture{
		auth:     NewAuthService(users, sessions, mailer, 10*time.Minute),
		sessions: sessions,
		mailer:   mailer,
		users:    users,
	}
}

func startRegistration(t *testing.T, f *authFixture, username string) *session.Session {
	t.Helper()

	sess, _, err := f.sessions.Begin()
	require.NoError(t, err)

	err = f.auth.StartRegistration(context.Background(), sess, &StartRegistrationRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "secret-pass",
	})
	require.NoError(t, err)
	return sess
}

func TestRegistrationFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	assert.Equal(t, session.StateAwaitingOTP, sess.State)
	assert.Equal(t, "alice@example.com", f.mailer.lastTo)
	require.Len(t, f.mailer.lastCode, 6)

	user, err := f.auth.CompleteRegistration(ctx, sess, f.mailer.lastCode)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotZero(t, user.ID)

	// Registration does not log the user in
	assert.Equal(t, session.StateAnonymous, sess.State)
	assert.Nil(t, sess.Pending)

	// The account works with the registered password
	loginSess, _, err := f.sessions.Begin()
	require.NoError(t, err)
	err = f.auth.Login(ctx, loginSess, &LoginRequest{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, session.StateAuthenticated, loginSess.State)
	assert.Equal(t, user.ID, loginSess.UserID)
}

func TestCompleteRegistrationWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")

	for _, code := range []string{"000000", "", "12345", "1234567", "xyzxyz"} {
		_, err := f.auth.CompleteRegistration(ctx, sess, code)
		assert.ErrorIs(t, err, ErrInvalidOTP, "code %q", code)
	}

	// No user was created and the payload is still pending
	exists, err := f.users.ExistsByUsername("alice")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, session.StateAwaitingOTP, sess.State)
}

func TestCompleteRegistrationStaleCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	code := f.mailer.lastCode

	_, err := f.auth.CompleteRegistration(ctx, sess, code)
	require.NoError(t, err)

	// The payload was consumed; the same code cannot be confirmed again
	_, err = f.auth.CompleteRegistration(ctx, sess, code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestCompleteRegistrationExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	sess.Pending.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := f.auth.CompleteRegistration(ctx, sess, f.mailer.lastCode)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestReissueReplacesCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	firstCode := f.mailer.lastCode

	err := f.auth.StartRegistration(ctx, sess, &StartRegistrationRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	secondCode := f.mailer.lastCode

	if firstCode != secondCode {
		_, err = f.auth.CompleteRegistration(ctx, sess, firstCode)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	_, err = f.auth.CompleteRegistration(ctx, sess, secondCode)
	assert.NoError(t, err)
}

func TestStartRegistrationDeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.mailer.err = errors.New("smtp: connection refused")

	sess, _, err := f.sessions.Begin()
	require.NoError(t, err)

	err = f.auth.StartRegistration(ctx, sess, &StartRegistrationRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret-pass",
	})
	assert.ErrorIs(t, err, ErrEmailDelivery)

	// Nothing pending: the session is unchanged
	assert.Equal(t, session.StateAnonymous, sess.State)
	assert.Nil(t, sess.Pending)
}

func TestStartRegistrationWhileAuthenticated(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	_, err := f.auth.CompleteRegistration(ctx, sess, f.mailer.lastCode)
	require.NoError(t, err)
	require.NoError(t, f.auth.Login(ctx, sess, &LoginRequest{Username: "alice", Password: "secret-pass"}))

	err = f.auth.StartRegistration(ctx, sess, &StartRegistrationRequest{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "secret-pass",
	})
	assert.ErrorIs(t, err, session.ErrInvalidTransition)
}

func TestDuplicateUsernameRace(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// Two sessions race the same username; both hold valid codes
	sessA := startRegistration(t, f, "alice")
	codeA := f.mailer.lastCode

	sessB, _, err := f.sessions.Begin()
	require.NoError(t, err)
	err = f.auth.StartRegistration(ctx, sessB, &StartRegistrationRequest{
		Email:    "other@example.com",
		Username: "alice",
		Password: "other-pass",
	})
	require.NoError(t, err)
	codeB := f.mailer.lastCode

	_, err = f.auth.CompleteRegistration(ctx, sessA, codeA)
	require.NoError(t, err)

	// Exactly one wins; the loser sees the duplicate, not a crash
	_, err = f.auth.CompleteRegistration(ctx, sessB, codeB)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginConstantResponse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	_, err := f.auth.CompleteRegistration(ctx, sess, f.mailer.lastCode)
	require.NoError(t, err)

	// Unknown user and wrong password are indistinguishable
	unknownSess, _, err := f.sessions.Begin()
	require.NoError(t, err)
	errUnknown := f.auth.Login(ctx, unknownSess, &LoginRequest{Username: "nobody", Password: "secret-pass"})

	wrongSess, _, err := f.sessions.Begin()
	require.NoError(t, err)
	errWrong := f.auth.Login(ctx, wrongSess, &LoginRequest{Username: "alice", Password: "bad-pass"})

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginPersistsSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	_, err := f.auth.CompleteRegistration(ctx, sess, f.mailer.lastCode)
	require.NoError(t, err)

	loginSess, token, err := f.sessions.Begin()
	require.NoError(t, err)
	require.NoError(t, f.auth.Login(ctx, loginSess, &LoginRequest{Username: "alice", Password: "secret-pass"}))

	// A later request resolving the same token sees the authenticated state
	got, err := f.sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.StateAuthenticated, got.State)
	assert.Equal(t, "alice", got.Username)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess := startRegistration(t, f, "alice")
	_, err := f.auth.CompleteRegistration(ctx, sess, f.mailer.lastCode)
	require.NoError(t, err)

	loginSess, token, err := f.sessions.Begin()
	require.NoError(t, err)
	require.NoError(t, f.auth.Login(ctx, loginSess, &LoginRequest{Username: "alice", Password: "secret-pass"}))

	require.NoError(t, f.auth.Logout(ctx, loginSess))

	_, err = f.sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
