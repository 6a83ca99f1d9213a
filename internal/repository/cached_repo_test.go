package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ascend-intake/internal/common/config"
	"ascend-intake/internal/common/database"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often the underlying store is hit.
type countingStore struct {
	ApplicationStore
	lists   int
	creates int
	listErr error
}

func (s *countingStore) Create(ctx context.Context, app models.NewApplication) (*models.Application, error) {
	s.creates++
	return s.ApplicationStore.Create(ctx, app)
}

func (s *countingStore) List(ctx context.Context) ([]models.Application, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.ApplicationStore.List(ctx)
}

func newCachedWithMiniredis(t *testing.T) (*CachedApplicationRepository, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	store := &countingStore{ApplicationStore: NewMemoryApplicationRepository()}
	repo := NewCachedApplicationRepository(store, cache, time.Minute, logger.NewTestLogger(t))
	return repo, store, mr
}

func TestCachedApplicationRepository_ListServesFromCache(t *testing.T) {
	repo, store, mr := newCachedWithMiniredis(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, createTestApplication())
	require.NoError(t, err)

	first, err := repo.List(ctx)
	require.NoError(t, err)
	second, err := repo.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, store.lists)
	assert.True(t, mr.Exists(listCacheKey(0)))
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].CreatedAt.Equal(second[0].CreatedAt))
}

func TestCachedApplicationRepository_CreateInvalidates(t *testing.T) {
	repo, store, mr := newCachedWithMiniredis(t)
	ctx := context.Background()

	_, err := repo.List(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(listCacheKey(0)))

	created, err := repo.Create(ctx, createTestApplication())
	require.NoError(t, err)
	gen, err := mr.Get(listGenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.False(t, mr.Exists(listCacheKey(1)))

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, created.ID, apps[0].ID)
	assert.Equal(t, 2, store.lists)
}

func TestCachedApplicationRepository_ExpiresAfterTTL(t *testing.T) {
	repo, store, mr := newCachedWithMiniredis(t)
	ctx := context.Background()

	_, err := repo.List(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
}

func TestCachedApplicationRepository_CacheDownFallsThrough(t *testing.T) {
	repo, store, mr := newCachedWithMiniredis(t)
	ctx := context.Background()
	mr.Close()

	created, err := repo.Create(ctx, createTestApplication())
	require.NoError(t, err)
	assert.Equal(t, 1, store.creates)

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, created.ID, apps[0].ID)
}

func TestCachedApplicationRepository_CorruptEntryIsIgnored(t *testing.T) {
	repo, store, mr := newCachedWithMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(listCacheKey(0), "{not json"))

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)
	assert.Equal(t, 1, store.lists)
}

func TestCachedApplicationRepository_StoreErrorPropagates(t *testing.T) {
	repo, store, mr := newCachedWithMiniredis(t)
	store.listErr = errors.New("db down")

	_, err := repo.List(context.Background())
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(listCacheKey(0)))
}

func TestCachedApplicationRepository_RedisCommands(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &database.RedisClient{Client: client}

	store := NewMemoryApplicationRepository()
	created, err := store.Create(context.Background(), createTestApplication())
	require.NoError(t, err)

	expected, err := json.Marshal([]models.Application{*created})
	require.NoError(t, err)

	mock.ExpectGet(listGenerationKey).SetVal("4")
	mock.ExpectGet(listCacheKey(4)).RedisNil()
	mock.ExpectSet(listCacheKey(4), expected, 30*time.Second).SetVal("OK")
	mock.ExpectIncr(listGenerationKey).SetErr(errors.New("READONLY"))

	repo := NewCachedApplicationRepository(store, cache, 30*time.Second, logger.NewNoOpLogger())

	apps, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	// a failing invalidation does not fail the write
	_, err = repo.Create(context.Background(), createTestApplication())
	require.NoError(t, err)

	// and the cache is skipped entirely afterwards
	apps, err = repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// gatedStore pauses List after it has read from the underlying store.
type gatedStore struct {
	ApplicationStore
	gate    chan struct{}
	read    chan struct{}
	release chan struct{}
}

func (s *gatedStore) List(ctx context.Context) ([]models.Application, error) {
	apps, err := s.ApplicationStore.List(ctx)
	select {
	case <-s.gate:
		close(s.read)
		<-s.release
	default:
	}
	return apps, err
}

func TestCachedApplicationRepository_ListRacingCreate(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	store := &gatedStore{
		ApplicationStore: NewMemoryApplicationRepository(),
		gate:             make(chan struct{}, 1),
		read:             make(chan struct{}),
		release:          make(chan struct{}),
	}
	repo := NewCachedApplicationRepository(store, cache, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	store.gate <- struct{}{}
	done := make(chan error, 1)
	go func() {
		_, err := repo.List(ctx)
		done <- err
	}()

	<-store.read
	created, err := repo.Create(ctx, createTestApplication())
	require.NoError(t, err)
	close(store.release)
	require.NoError(t, <-done)

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, created.ID, apps[0].ID)
}

// failingIncrCache lets reads and writes through but fails invalidation.
type failingIncrCache struct {
	Cache
}

func (failingIncrCache) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("READONLY")
}

func TestCachedApplicationRepository_FailedInvalidationBypassesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	redis := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = redis.Close() })

	store := &countingStore{ApplicationStore: NewMemoryApplicationRepository()}
	repo := NewCachedApplicationRepository(store, failingIncrCache{Cache: redis}, time.Minute, logger.NewTestLogger(t))
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := repo.List(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(listCacheKey(0)))

	created, err := repo.Create(ctx, createTestApplication())
	require.NoError(t, err)

	apps, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, created.ID, apps[0].ID)
	assert.Equal(t, 2, store.lists)

	// once any stale entry has expired the cache is used again
	now = now.Add(2 * time.Minute)
	mr.FastForward(2 * time.Minute)
	_, err = repo.List(ctx)
	require.NoError(t, err)
	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, store.lists)
}
