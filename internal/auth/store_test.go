package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract exercises the behavior every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(time.Hour)
	s := &Session{
		Token:          "token-a",
		CreatedAt:      now,
		ExpiresAt:      &expiresAt,
		LastActivityAt: now,
		RememberMe:     true,
		UserAgent:      "test-agent",
		CreatedFrom:    "127.0.0.1",
	}

	_, found, err := store.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "token-a", s))

	got, found, err := store.Get(ctx, "token-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "token-a", got.Token)
	assert.True(t, got.CreatedAt.Equal(now))
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expiresAt))
	assert.True(t, got.RememberMe)
	assert.Equal(t, "test-agent", got.UserAgent)

	// Overwrite replaces the previous record.
	s.RememberMe = false
	require.NoError(t, store.Put(ctx, "token-a", s))
	got, _, err = store.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, got.RememberMe)

	require.NoError(t, store.Put(ctx, "token-b", &Session{Token: "token-b", CreatedAt: now}))

	if lister, ok := store.(TokenLister); ok {
		tokens, err := lister.Tokens(ctx)
		require.NoError(t, err)
		sort.Strings(tokens)
		assert.Equal(t, []string{"token-a", "token-b"}, tokens)
	}

	require.NoError(t, store.Delete(ctx, "token-a"))
	_, found, err = store.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, "token-a"), "deleting twice is not an error")
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "t", &Session{Token: "t", ExpiresAt: timePtr(testEpoch)}))

	got, _, _ := store.Get(ctx, "t")
	*got.ExpiresAt = testEpoch.Add(time.Hour)
	got.RememberMe = true

	again, _, _ := store.Get(ctx, "t")
	assert.Equal(t, testEpoch, *again.ExpiresAt)
	assert.False(t, again.RememberMe)
	assert.Equal(t, 1, store.Len())
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db, testDurations.Legacy())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	storeContract(t, store)
}

func TestSQLiteStore_TableCreationIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	first, err := NewSQLiteStore(db, testDurations.Legacy())
	require.NoError(t, err)
	first.Close()

	second, err := NewSQLiteStore(db, testDurations.Legacy())
	require.NoError(t, err)
	second.Close()
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "test_session", testDurations.Legacy()), mr
}

func TestRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	storeContract(t, store)
}

func TestRedisStore_KeyLayoutAndTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	clock := newFakeClock(testEpoch)
	store.clock = clock

	expiresAt := testEpoch.Add(time.Hour)
	require.NoError(t, store.Put(context.Background(), "abc", &Session{Token: "abc", CreatedAt: testEpoch, ExpiresAt: &expiresAt}))

	assert.True(t, mr.Exists("test_session:abc"))
	assert.Equal(t, time.Hour+GracePeriod, mr.TTL("test_session:abc"))

	mr.FastForward(time.Hour + GracePeriod + time.Second)
	_, found, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_PutOfExpiredSessionDeletes(t *testing.T) {
	store, mr := newTestRedisStore(t)
	clock := newFakeClock(testEpoch)
	store.clock = clock
	ctx := context.Background()

	expiresAt := testEpoch.Add(time.Hour)
	require.NoError(t, store.Put(ctx, "abc", &Session{Token: "abc", ExpiresAt: &expiresAt}))

	clock.Advance(2 * time.Hour)
	require.NoError(t, store.Put(ctx, "abc", &Session{Token: "abc", ExpiresAt: &expiresAt}))
	assert.False(t, mr.Exists("test_session:abc"))
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "", testDurations.Legacy())
	require.NoError(t, store.Put(context.Background(), "abc", &Session{Token: "abc", CreatedAt: time.Now()}))
	assert.True(t, mr.Exists(DefaultRedisPrefix+":abc"))
}

func TestSQLiteStore_SweepRemovesExpiredSessions(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db, testDurations.Legacy())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	// sqlite3store filters rows on the wall clock, so start from real time.
	clock := newFakeClock(time.Now())
	m := NewManager(store, testDurations, zerolog.Nop(), WithClock(clock))
	ctx := context.Background()

	short, err := m.Create(ctx, false, "ua", "127.0.0.1")
	require.NoError(t, err)
	long, err := m.Create(ctx, true, "ua", "127.0.0.1")
	require.NoError(t, err)

	clock.Advance(testDurations.Short + GracePeriod + time.Minute)
	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	tokens, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{long.Token}, tokens)
	assert.NotContains(t, tokens, short.Token)
}

// mapBackend is an scs.Store that cannot enumerate its rows.
type mapBackend struct {
	rows map[string][]byte
}

func (b *mapBackend) Find(token string) ([]byte, bool, error) {
	data, ok := b.rows[token]
	return data, ok, nil
}

func (b *mapBackend) Commit(token string, data []byte, expiry time.Time) error {
	b.rows[token] = data
	return nil
}

func (b *mapBackend) Delete(token string) error {
	delete(b.rows, token)
	return nil
}

func TestCodecStore_NonIterableBackendReportsSweepUnsupported(t *testing.T) {
	ctx := context.Background()
	store := NewCodecStore(&mapBackend{rows: map[string][]byte{}}, testDurations.Legacy())

	require.NoError(t, store.Put(ctx, "abc", &Session{Token: "abc", CreatedAt: testEpoch}))
	got, found, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc", got.Token)

	_, err = store.Tokens(ctx)
	assert.ErrorIs(t, err, ErrSweepUnsupported)

	m := NewManager(store, testDurations, zerolog.Nop())
	_, err = m.Sweep(ctx)
	assert.ErrorIs(t, err, ErrSweepUnsupported)
}

func TestRedisStore_UsesManagerClock(t *testing.T) {
	store, mr := newTestRedisStore(t)
	clock := newFakeClock(testEpoch)
	m := NewManager(store, testDurations, zerolog.Nop(), WithClock(clock))
	ctx := context.Background()

	s, err := m.Create(ctx, false, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, testDurations.Short+GracePeriod, mr.TTL("test_session:"+s.Token))

	clock.Advance(time.Hour)
	_, err = m.Validate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, testDurations.Short+GracePeriod-time.Hour, mr.TTL("test_session:"+s.Token))
}
