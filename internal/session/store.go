package session

import (
	"context"
	"time"
)

// Store persists session records. Implementations must be safe for
// concurrent use; each request resolves its own copy of the session.
type Store interface {
	// Save creates or overwrites the record for sess.ID.
	Save(ctx context.Context, sess *Session) error
	// Get returns the session or ErrNotFound if absent or expired.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// Sweep removes expired sessions and clears expired OTP payloads from
	// live ones. It returns the number of sessions removed and payloads
	// cleared; backends with native key expiry may report zero.
	Sweep(ctx context.Context, now time.Time) (sessions int, otps int, err error)
}
