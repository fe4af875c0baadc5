package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/study-assistant/internal/config"
	"github.com/study-assistant/pkg/keygen"
)

// Manager creates, resolves and destroys sessions. Clients hold a signed
// token carrying only the session id; all state stays server-side in the
// store.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

// tokenClaims is the JWT payload for a session token.
type tokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, cfg config.SessionConfig) *Manager {
	return &Manager{
		store:  store,
		secret: []byte(cfg.Secret),
		ttl:    cfg.SessionTTL(),
	}
}

// Begin creates a fresh anonymous session and returns it with its token.
// Nothing is written to the store; callers Save once the operation that
// needed the session succeeds, so failed attempts leave no record behind.
func (m *Manager) Begin() (*Session, string, error) {
	now := time.Now()
	sess := &Session{
		ID:        keygen.SessionID(),
		State:     StateAnonymous,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	token, err := m.mint(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Resolve validates a session token and loads the session it names.
// Tampered tokens and expired or destroyed sessions yield ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrNotFound
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrNotFound
	}
	return m.store.Get(ctx, claims.SessionID)
}

// Save persists a mutated session.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	return m.store.Save(ctx, sess)
}

// Destroy removes the session entirely; the next request starts anonymous.
func (m *Manager) Destroy(ctx context.Context, sess *Session) error {
	return m.store.Delete(ctx, sess.ID)
}

// Sweep removes expired sessions and stale OTP payloads from the store.
func (m *Manager) Sweep(ctx context.Context) (int, int, error) {
	return m.store.Sweep(ctx, time.Now())
}

// mint signs a token for the session. The token expires with the session.
func (m *Manager) mint(sess *Session) (string, error) {
	claims := &tokenClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "study-assistant",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
