package tokenstore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"example.com/backstage/services/picking/internal/cache"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type code struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (c code) GetToken() string { return c.Token }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*MemoryStore[code], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemoryStore[code](ttl, WithClock(clock.Now)), clock
}

func TestGenerate(t *testing.T) {
	tok, err := Generate(32)
	require.NoError(t, err)
	require.Len(t, tok, 32)
	for _, r := range tok {
		require.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}

	other, err := Generate(32)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)

	_, err = Generate(0)
	require.ErrorIs(t, err, ErrInvalidLength)
	_, err = Generate(-3)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(time.Minute)

	rec := code{Token: "abc123", Email: "a@example.com"}
	require.NoError(t, store.Put(ctx, "a@example.com", rec))

	got, ok, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, got)

	_, ok, err = store.Get(ctx, "missing@example.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreExpiresWithoutRemove(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(time.Minute)

	require.NoError(t, store.Put(ctx, "k", code{Token: "t"}))

	clock.Advance(59 * time.Second)
	_, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = store.Get(ctx, "k")
	require.False(t, ok)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStorePutRestartsExpiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(time.Minute)

	require.NoError(t, store.Put(ctx, "k", code{Token: "first"}))
	clock.Advance(50 * time.Second)
	require.NoError(t, store.Put(ctx, "k", code{Token: "second"}))
	clock.Advance(50 * time.Second)

	got, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, "second", got.Token)
}

func TestMemoryStoreValidate(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(time.Minute)

	require.NoError(t, store.Put(ctx, "k", code{Token: "Secret1"}))

	ok, err := store.Validate(ctx, "k", "Secret1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = store.Validate(ctx, "k", "secret1")
	require.False(t, ok)
	ok, _ = store.Validate(ctx, "k", "Secret1 ")
	require.False(t, ok)
	ok, _ = store.Validate(ctx, "other", "Secret1")
	require.False(t, ok)

	clock.Advance(time.Minute)
	ok, _ = store.Validate(ctx, "k", "Secret1")
	require.False(t, ok)
}

func TestMemoryStoreRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(time.Minute)

	require.NoError(t, store.Put(ctx, "k", code{Token: "t"}))
	require.NoError(t, store.Remove(ctx, "k"))
	require.NoError(t, store.Remove(ctx, "k"))
	require.NoError(t, store.Remove(ctx, "never-there"))

	_, ok, _ := store.Get(ctx, "k")
	require.False(t, ok)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(time.Minute)

	require.NoError(t, store.Put(ctx, "old", code{Token: "1"}))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Put(ctx, "new", code{Token: "2"}))
	clock.Advance(40 * time.Second)

	require.Equal(t, 1, store.Sweep())
	require.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, "new")
	require.True(t, ok)
}

func TestMemoryStoreSweeperRuns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[code](time.Millisecond)
	require.NoError(t, store.Put(ctx, "k", code{Token: "t"}))

	scheduler, err := store.StartSweeper(20 * time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = scheduler.Shutdown() }()

	require.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = store.Put(ctx, "k", code{Token: "t"})
				_, _, _ = store.Get(ctx, "k")
				_, _ = store.Validate(ctx, "k", "t")
				_ = store.Remove(ctx, "k")
				clock.Advance(10 * time.Millisecond)
				store.Sweep()
			}
		}()
	}
	wg.Wait()
}

type mockRedisClient struct {
	mock.Mock
}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedisClient) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockRedisClient) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockRedisClient) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRedisClient) Close() error {
	return m.Called().Error(0)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedisClient)
	store := NewRedisStore[code](client, 5*time.Minute, "tok:")

	client.On("Set", ctx, "tok:a@example.com", `{"token":"xyz","email":"a@example.com"}`, 5*time.Minute).Return(nil)
	client.On("Get", ctx, "tok:a@example.com").Return(`{"token":"xyz","email":"a@example.com"}`, nil)
	client.On("Get", ctx, "tok:gone@example.com").Return("", cache.ErrCacheMiss)
	client.On("Delete", ctx, "tok:a@example.com").Return(nil)

	require.NoError(t, store.Put(ctx, "a@example.com", code{Token: "xyz", Email: "a@example.com"}))

	got, ok, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "xyz", got.Token)

	valid, err := store.Validate(ctx, "a@example.com", "xyz")
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = store.Validate(ctx, "gone@example.com", "xyz")
	require.NoError(t, err)
	require.False(t, valid)

	require.NoError(t, store.Remove(ctx, "a@example.com"))
	client.AssertExpectations(t)
}

func TestPutRejectsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()

	for _, ttl := range []time.Duration{0, -time.Second} {
		mem, _ := newTestStore(ttl)
		require.ErrorIs(t, mem.Put(ctx, "k", code{Token: "abc"}), ErrInvalidTTL)
		_, ok, err := mem.Get(ctx, "k")
		require.NoError(t, err)
		require.False(t, ok)

		client := new(mockRedisClient)
		redisStore := NewRedisStore[code](client, ttl, "tok:")
		require.ErrorIs(t, redisStore.Put(ctx, "k", code{Token: "abc"}), ErrInvalidTTL)
		client.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}
