package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Stop()

	_, err := s.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	tr := Transcript{}.Append(RoleUser, "hello")
	require.NoError(t, s.Save(ctx, "abc", tr))

	got, err := s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	// Mutating the loaded copy does not touch the stored one.
	got[0].Content = "changed"
	again, err := s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Content)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Load(ctx, "abc")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, "abc"))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithTTL(time.Hour), WithStoreClock(clock.Now))
	defer s.Stop()

	require.NoError(t, s.Save(ctx, "old", Transcript{}))
	clock.Advance(50 * time.Minute)
	require.NoError(t, s.Save(ctx, "fresh", Transcript{}))

	// Loading refreshes the last access time.
	_, err := s.Load(ctx, "old")
	require.NoError(t, err)

	clock.Advance(61 * time.Minute)
	_, err = s.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 2, s.removeExpired(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_WithoutExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithoutExpiry(), WithStoreClock(clock.Now))
	defer s.Stop()

	require.NoError(t, s.Save(ctx, "cli", Transcript{}.Append(RoleUser, "hello")))
	clock.Advance(30 * 24 * time.Hour)

	assert.Equal(t, 0, s.removeExpired(ctx))
	tr, err := s.Load(ctx, "cli")
	require.NoError(t, err)
	assert.Len(t, tr, 1)
}

func TestMemoryStore_CleanupLoop(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Now()}
	s := newMemoryStore(5*time.Millisecond, WithTTL(time.Minute), WithStoreClock(clock.Now))
	defer s.Stop()

	require.NoError(t, s.Save(ctx, "a", Transcript{}))
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_StopTwice(t *testing.T) {
	s := NewMemoryStore()
	s.Stop()
	assert.NotPanics(t, s.Stop)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := s.Load(ctx, "shared")
			if err != nil {
				tr = Transcript{}
			}
			_ = s.Save(ctx, "shared", tr.Append(RoleUser, "x"))
		}()
	}
	wg.Wait()

	tr, err := s.Load(ctx, "shared")
	require.NoError(t, err)
	assert.NotEmpty(t, tr)
	assert.LessOrEqual(t, len(tr), 20)
}
