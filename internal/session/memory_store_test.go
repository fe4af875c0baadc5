package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession()
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, StateAnonymous, got.State)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession()
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, sess))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession()
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error
	assert.NoError(t, store.Delete(ctx, sess.ID))
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession()
	require.NoError(t, sess.AwaitOTP(newTestPending("482913")))
	require.NoError(t, store.Save(ctx, sess))

	// Mutating the caller's copy must not leak into the store
	sess.Pending.OTPCode = "000000"

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "482913", got.Pending.OTPCode)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	expired := newTestSession()
	expired.ID = "expired"
	expired.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, store.Save(ctx, expired))

	stale := newTestSession()
	stale.ID = "stale-otp"
	pending := newTestPending("482913")
	pending.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, stale.AwaitOTP(pending))
	require.NoError(t, store.Save(ctx, stale))

	fresh := newTestSession()
	fresh.ID = "fresh"
	require.NoError(t, fresh.AwaitOTP(newTestPending("111111")))
	require.NoError(t, store.Save(ctx, fresh))

	sessions, otps, err := store.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 1, otps)
	assert.Equal(t, 2, store.Len())

	// The stale session survives but its code is gone
	got, err := store.Get(ctx, "stale-otp")
	require.NoError(t, err)
	assert.Equal(t, StateAnonymous, got.State)
	assert.Nil(t, got.Pending)

	// The fresh payload is untouched
	got, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingOTP, got.State)
	require.NotNil(t, got.Pending)
}
