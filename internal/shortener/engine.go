package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Strategy names a configured build strategy.
type Strategy string

const (
	StrategyHash  Strategy = "hash"
	StrategyToken Strategy = "token"
)

// Dispatcher runs durable writes off the request path. Implementations must
// never drop a submitted task.
type Dispatcher interface {
	Submit(task func())
}

const persistTimeout = 5 * time.Second

// Engine is the public entry point of the short-link core. It validates
// input, runs the collision resolver, keeps the cache and durable store
// consistent, and answers lookups.
//
// Generation is write-behind: the code is returned to the caller once the
// cache reservation succeeds, and the durable insert runs on the dispatcher.
// If the insert fails, the cache entry is deleted so the slot is not blocked
// forever.
type Engine struct {
	resolvers  map[Strategy]Resolver
	cache      Cache
	store      Store
	dispatch   Dispatcher
	defaultTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewEngine creates an engine. All collaborators are injected; tests
// substitute in-memory fakes.
func NewEngine(
	cache Cache,
	store Store,
	resolvers map[Strategy]Resolver,
	dispatch Dispatcher,
	defaultTTL time.Duration,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		resolvers:  resolvers,
		cache:      cache,
		store:      store,
		dispatch:   dispatch,
		defaultTTL: defaultTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// GenerateOptions control a single generation request.
type GenerateOptions struct {
	// Strategy selects the build strategy; empty means hash.
	Strategy Strategy
	// ExpireDays sets an explicit retention window. Zero means the engine
	// default: a cache entry with the default TTL and a durable row kept
	// until operator-driven cleanup.
	ExpireDays int
}

// Generate maps a long URL to a short code. The code is usable for
// redirection as soon as Generate returns; durability follows eventually.
func (e *Engine) Generate(ctx context.Context, rawURL string, opts GenerateOptions) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyHash
	}

	resolver, ok := e.resolvers[strategy]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	ttl := e.defaultTTL

	var expire *time.Time

	if opts.ExpireDays > 0 {
		ttl = time.Duration(opts.ExpireDays) * 24 * time.Hour
		t := e.now().Add(ttl)
		expire = &t
	}

	res, err := resolver.Resolve(ctx, rawURL, ttl)
	if err != nil {
		return "", err
	}

	// An idempotent re-generation already has its durable row; the resolver
	// only refreshed the TTL.
	if res.Existing {
		return res.Code, nil
	}

	mapping := &Mapping{
		ShortCode:  res.Code,
		LongURL:    rawURL,
		BuildType:  resolver.BuildType(),
		ExpireTime: expire,
	}

	e.dispatch.Submit(func() {
		e.persist(mapping)
	})

	return res.Code, nil
}

// persist runs on the dispatcher. On failure it compensates by deleting the
// cache reservation so a later request can claim the slot again.
func (e *Engine) persist(m *Mapping) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, err := e.store.Upsert(ctx, m); err != nil {
		e.logger.Error("durable write failed, releasing cache slot",
			zap.String("code", m.ShortCode),
			zap.Error(err),
		)

		if derr := e.cache.Delete(ctx, m.ShortCode); derr != nil {
			e.logger.Error("compensating cache delete failed",
				zap.String("code", m.ShortCode),
				zap.Error(derr),
			)
		}

		return
	}

	e.logger.Debug("mapping persisted", zap.String("code", m.ShortCode))
}

// Resolve returns the long URL for a code. Cache first; on a miss (or an
// unreachable cache) it falls back to the durable store and backfills the
// cache best-effort.
func (e *Engine) Resolve(ctx context.Context, code string) (string, error) {
	longURL, err := e.cache.Get(ctx, code)
	if err == nil {
		return longURL, nil
	}

	if !errors.Is(err, ErrCacheMiss) {
		e.logger.Warn("cache unavailable, falling back to store",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	m, err := e.store.FindByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", code, err)
	}

	if m.Expired(e.now()) {
		return "", ErrNotFound
	}

	// Never cache past the row's retention, or the code would keep serving
	// from cache after the sweeper deletes it.
	ttl := e.defaultTTL
	if m.ExpireTime != nil {
		if remaining := m.ExpireTime.Sub(e.now()); remaining < ttl {
			ttl = remaining
		}
	}

	if err := e.cache.Set(ctx, code, m.LongURL, ttl); err != nil {
		e.logger.Warn("cache backfill failed",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	return m.LongURL, nil
}

// PurgeExpired deletes durable rows whose expire time has passed. Cache
// entries are left to their own TTLs.
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := e.store.DeleteExpired(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}

	return count, nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidURL
	}

	return nil
}
