package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ascend-intake/internal/api"
	"ascend-intake/internal/common/config"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/models"
	"ascend-intake/internal/repository"
)

func fastRetries(t *testing.T) {
	t.Helper()
	pg, rd := postgresRetryDelay, redisRetryDelay
	postgresRetryDelay, redisRetryDelay = time.Millisecond, time.Millisecond
	t.Cleanup(func() { postgresRetryDelay, redisRetryDelay = pg, rd })
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 4, time.Millisecond, zap.NewNop(), "op")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return errors.New("down")
	}, 2, time.Millisecond, zap.NewNop(), "op")
	assert.EqualError(t, err, "op failed after 2 attempts: down")
	assert.Equal(t, 2, calls)
}

func TestBuildStore_PostgresUnreachableReturnsError(t *testing.T) {
	fastRetries(t)
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "postgres",
		Postgres: config.PostgresConfig{
			Host:     "127.0.0.1",
			Port:     1,
			User:     "intake",
			Database: "intake",
			SSLMode:  "disable",
		},
	}}

	store, closeStore, err := buildStore(context.Background(), cfg, zap.NewNop(), logger.NewNoOpLogger(), map[string]api.ReadinessCheck{})
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Nil(t, closeStore)
}

func TestBuildStore_MemoryWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverMemory,
		Redis:  config.RedisConfig{Enabled: true, Address: mr.Addr(), ListCacheTTL: 1000},
	}}
	checks := map[string]api.ReadinessCheck{}

	store, closeStore, err := buildStore(context.Background(), cfg, zap.NewNop(), logger.NewNoOpLogger(), checks)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &repository.CachedApplicationRepository{}, store)
	require.Contains(t, checks, "cache")
	assert.NoError(t, checks["cache"](context.Background()))

	created, err := store.Create(context.Background(), models.NewApplication{FullName: "Jo", Email: "jo@x.com"})
	require.NoError(t, err)
	apps, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, created.ID, apps[0].ID)
}

func TestBuildStore_RedisDownDisablesCache(t *testing.T) {
	fastRetries(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverMemory,
		Redis:  config.RedisConfig{Enabled: true, Address: addr},
	}}
	checks := map[string]api.ReadinessCheck{}

	store, closeStore, err := buildStore(context.Background(), cfg, zap.NewNop(), logger.NewNoOpLogger(), checks)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &repository.MemoryApplicationRepository{}, store)
	assert.NotContains(t, checks, "cache")
}

func TestBuildNotifier_InvalidSMTPConfigReturnsError(t *testing.T) {
	cfg := &config.Config{Notifications: config.NotificationConfig{Provider: config.ProviderSMTP}}

	_, err := buildNotifier(context.Background(), cfg, logger.NewNoOpLogger(), map[string]api.ReadinessCheck{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp config")
}
