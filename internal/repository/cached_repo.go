package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/metrics"
	"ascend-intake/internal/models"
)

const (
	listCacheKeyPrefix = "intake:applications:list:"
	// Every Create bumps the generation; lists are cached under the
	// generation they were read at, so a snapshot taken before a write is
	// never served after it.
	listGenerationKey = "intake:applications:gen"
)

func listCacheKey(gen int64) string {
	return listCacheKeyPrefix + strconv.FormatInt(gen, 10)
}

// Cache is the key/value store used for the list cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// CachedApplicationRepository caches List results in front of another store.
// Cache failures are logged and never fail the call.
type CachedApplicationRepository struct {
	next   ApplicationStore
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time

	mu          sync.Mutex
	bypassUntil time.Time
}

func NewCachedApplicationRepository(next ApplicationStore, cache Cache, ttl time.Duration, log logger.Logger) *CachedApplicationRepository {
	return &CachedApplicationRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "application_list_cache"}),
		now:    time.Now,
	}
}

func (r *CachedApplicationRepository) Create(ctx context.Context, app models.NewApplication) (*models.Application, error) {
	created, err := r.next.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	if _, err := r.cache.Incr(ctx, listGenerationKey); err != nil {
		// The current generation may still hold a list without this record;
		// skip the cache until any such entry has expired.
		r.mu.Lock()
		r.bypassUntil = r.now().Add(r.ttl)
		r.mu.Unlock()
		r.logCacheError("invalidate", err)
	}
	return created, nil
}

func (r *CachedApplicationRepository) List(ctx context.Context) ([]models.Application, error) {
	if r.bypassed() {
		metrics.ListCacheLookups.WithLabelValues("bypass").Inc()
		return r.next.List(ctx)
	}

	gen, err := r.generation(ctx)
	if err != nil {
		metrics.ListCacheLookups.WithLabelValues("error").Inc()
		r.logCacheError("generation", err)
		return r.next.List(ctx)
	}
	key := listCacheKey(gen)

	cached, found, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.ListCacheLookups.WithLabelValues("error").Inc()
		r.logCacheError("get", err)
	case found:
		var apps []models.Application
		if err := json.Unmarshal(cached, &apps); err == nil {
			metrics.ListCacheLookups.WithLabelValues("hit").Inc()
			return apps, nil
		}
		metrics.ListCacheLookups.WithLabelValues("error").Inc()
		r.logCacheError("decode", err)
	default:
		metrics.ListCacheLookups.WithLabelValues("miss").Inc()
	}

	apps, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(apps)
	if err != nil {
		r.logCacheError("encode", err)
		return apps, nil
	}
	if err := r.cache.Set(ctx, key, payload, r.ttl); err != nil {
		r.logCacheError("set", err)
	}
	return apps, nil
}

// generation returns the current list generation; a missing counter is 0.
func (r *CachedApplicationRepository) generation(ctx context.Context) (int64, error) {
	raw, found, err := r.cache.Get(ctx, listGenerationKey)
	if err != nil || !found {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

func (r *CachedApplicationRepository) bypassed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Before(r.bypassUntil)
}

// Ping reports the health of the underlying store only.
func (r *CachedApplicationRepository) Ping(ctx context.Context) error {
	if p, ok := r.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *CachedApplicationRepository) logCacheError(op string, err error) {
	stdErr := apperrors.NewCacheUnavailableError(err)
	r.logger.Warn("List cache operation failed", map[string]interface{}{
		"operation":     op,
		"errorCode":     string(stdErr.Code),
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
	})
}
