package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.Get(ctx, ports.SlotQuotes)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, store.Set(ctx, ports.SlotQuotes, `[]`))

	value, err := store.Get(ctx, ports.SlotQuotes)
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Set(ctx, ports.SlotQuotes, `[{"text":"a"}]`))
	value, err = store.Get(ctx, ports.SlotQuotes)
	require.NoError(t, err)
	assert.Equal(t, `[{"text":"a"}]`, value)

	require.NoError(t, store.Delete(ctx, ports.SlotQuotes))
	require.NoError(t, store.Delete(ctx, ports.SlotQuotes), "deleting a missing key is not an error")

	_, err = store.Get(ctx, ports.SlotQuotes)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_HealthCheck(t *testing.T) {
	store := New()

	assert.Equal(t, "storage", store.Name())
	assert.NoError(t, store.Check(context.Background()))
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewSessionStore(time.Minute, clock.Now)

	require.NoError(t, store.Set(ctx, "s1", ports.SlotLastQuote, `{"text":"hi"}`))

	clock.Advance(59 * time.Second)

	value, err := store.Get(ctx, "s1", ports.SlotLastQuote)
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hi"}`, value)

	clock.Advance(time.Second)

	_, err = store.Get(ctx, "s1", ports.SlotLastQuote)
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, store.sessions, "expired sessions are dropped on read")
}

func TestSessionStore_SetRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewSessionStore(time.Minute, clock.Now)

	require.NoError(t, store.Set(ctx, "s1", "k", "v1"))
	clock.Advance(50 * time.Second)
	require.NoError(t, store.Set(ctx, "s1", "k", "v2"))
	clock.Advance(50 * time.Second)

	value, err := store.Get(ctx, "s1", "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestSessionStore_IsolatedAndCleared(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0, nil)

	require.NoError(t, store.Set(ctx, "s1", "k", "one"))
	require.NoError(t, store.Set(ctx, "s2", "k", "two"))

	value, err := store.Get(ctx, "s2", "k")
	require.NoError(t, err)
	assert.Equal(t, "two", value)

	_, err = store.Get(ctx, "s1", "missing")
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, store.Clear(ctx, "s1"))

	_, err = store.Get(ctx, "s1", "k")
	assert.True(t, domain.IsNotFound(err))
	assert.Len(t, store.sessions, 1)
}

func TestSessionStore_SweepsExpiredOnWrite(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewSessionStore(time.Minute, clock.Now)

	require.NoError(t, store.Set(ctx, "old", "k", "v"))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Set(ctx, "new", "k", "v"))

	store.mu.Lock()
	_, oldPresent := store.sessions["old"]
	store.mu.Unlock()

	assert.False(t, oldPresent)
}
