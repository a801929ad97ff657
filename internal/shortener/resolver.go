package shortener

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// duplicateMarker is appended to the hashed input when a candidate code
	// is too short or already taken, so each retry hashes a different string.
	duplicateMarker = "$"

	defaultMaxAttempts = 10
)

// Resolution is the outcome of a resolver run.
type Resolution struct {
	Code string
	// Existing marks an idempotent re-generation: the code was already
	// assigned to this exact URL and only had its TTL refreshed. No new
	// durable write is needed.
	Existing bool
}

// Resolver picks a free short code for a long URL and reserves it in the
// cache. The caller owns the durable write.
type Resolver interface {
	Resolve(ctx context.Context, longURL string, ttl time.Duration) (Resolution, error)
	BuildType() BuildType
}

// HashResolver derives candidate codes deterministically from the URL and
// walks a bounded retry loop when a candidate may be taken. The membership
// filter is a cheap pre-check; the cache's atomic set-if-absent is the actual
// arbiter, so two concurrent requests can never both win the same code.
type HashResolver struct {
	hash        HashFunc
	encode      EncodeFunc
	filter      MembershipFilter
	cache       Cache
	maxAttempts int
	now         func() time.Time
}

// NewHashResolver creates a resolver using the default murmur3/base62
// pipeline.
func NewHashResolver(filter MembershipFilter, cache Cache) *HashResolver {
	return NewCustomHashResolver(filter, cache, MurmurHash, Base62Encode)
}

// NewCustomHashResolver creates a resolver with explicit hash and encode
// steps. Tests use it to force collisions and too-short codes.
func NewCustomHashResolver(filter MembershipFilter, cache Cache, hash HashFunc, encode EncodeFunc) *HashResolver {
	return &HashResolver{
		hash:        hash,
		encode:      encode,
		filter:      filter,
		cache:       cache,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
}

func (r *HashResolver) BuildType() BuildType {
	return BuildTypeHash
}

func (r *HashResolver) Resolve(ctx context.Context, longURL string, ttl time.Duration) (Resolution, error) {
	candidate := longURL

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		code := r.encode(r.hash(candidate))

		// A single-character code means the hash landed in [0, 61];
		// too short to be usable, rehash with the marker appended.
		if len(code) <= 1 {
			candidate += duplicateMarker

			continue
		}

		if r.filter.Contains(code) {
			res, taken, err := r.checkTaken(ctx, code, longURL, ttl)
			if err != nil {
				return Resolution{}, err
			}

			if !taken {
				return res, nil
			}

			candidate = longURL + duplicateMarker + strconv.Itoa(attempt)

			continue
		}

		res, committed, err := r.commit(ctx, code, longURL, ttl)
		if err != nil {
			return Resolution{}, err
		}

		if committed {
			return res, nil
		}

		// Lost the set-if-absent race: the filter was cold for a code some
		// other process issued. Salt and retry.
		candidate = longURL + duplicateMarker + strconv.Itoa(attempt)
	}

	return r.salvage(ctx, longURL, ttl)
}

// checkTaken resolves a filter hit. It reports taken=true when the code is
// genuinely occupied by a different URL and the loop must retry. When the
// cached value matches the original URL, this is an idempotent
// re-generation: the TTL is refreshed and the existing code returned.
func (r *HashResolver) checkTaken(ctx context.Context, code, longURL string, ttl time.Duration) (Resolution, bool, error) {
	cached, err := r.cache.Get(ctx, code)

	switch {
	case err == nil && cached == longURL:
		if err := r.cache.Expire(ctx, code, ttl); err != nil {
			return Resolution{}, false, fmt.Errorf("refresh ttl for %q: %w", code, err)
		}

		return Resolution{Code: code, Existing: true}, false, nil

	case err != nil && !errors.Is(err, ErrCacheMiss):
		// An unreachable cache never means the slot is free.
		return Resolution{}, false, fmt.Errorf("collision check for %q: %w", code, err)
	}

	// Different URL cached, or the entry expired while the filter still
	// remembers the code. Either way the code is not ours to take as-is.
	return Resolution{}, true, nil
}

// commit reserves the code via atomic set-if-absent. committed=false means
// another request won the slot for a different URL and the caller must retry.
func (r *HashResolver) commit(ctx context.Context, code, longURL string, ttl time.Duration) (Resolution, bool, error) {
	ok, err := r.cache.SetIfAbsent(ctx, code, longURL, ttl)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("reserve %q: %w", code, err)
	}

	if ok {
		r.filter.Add(code)

		return Resolution{Code: code}, true, nil
	}

	// Lost the race. If the winner holds the same URL this is still an
	// idempotent hit.
	cached, err := r.cache.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return Resolution{}, false, nil
		}

		return Resolution{}, false, fmt.Errorf("post-race check for %q: %w", code, err)
	}

	if cached == longURL {
		if err := r.cache.Expire(ctx, code, ttl); err != nil {
			return Resolution{}, false, fmt.Errorf("refresh ttl for %q: %w", code, err)
		}

		r.filter.Add(code)

		return Resolution{Code: code, Existing: true}, true, nil
	}

	return Resolution{}, false, nil
}

// salvage is the single last-resort attempt after the retry budget: hash the
// original URL salted with the current timestamp and try exactly once more.
func (r *HashResolver) salvage(ctx context.Context, longURL string, ttl time.Duration) (Resolution, error) {
	candidate := longURL + duplicateMarker + strconv.FormatInt(r.now().UnixNano(), 10)

	code := r.encode(r.hash(candidate))
	if len(code) > 1 {
		res, committed, err := r.commit(ctx, code, longURL, ttl)
		if err != nil {
			return Resolution{}, err
		}

		if committed {
			return res, nil
		}
	}

	return Resolution{}, ErrGenerationExhausted
}

// CodeGenerator produces random candidate codes.
type CodeGenerator func() string

// TokenResolver reserves randomly generated codes. Unlike the hash resolver
// it never deduplicates: the same URL gets a fresh code on every call.
type TokenResolver struct {
	generate    CodeGenerator
	filter      MembershipFilter
	cache       Cache
	maxAttempts int
}

// NewTokenResolver creates a resolver that draws candidates from generate.
func NewTokenResolver(filter MembershipFilter, cache Cache, generate CodeGenerator) *TokenResolver {
	return &TokenResolver{
		generate:    generate,
		filter:      filter,
		cache:       cache,
		maxAttempts: defaultMaxAttempts,
	}
}

func (r *TokenResolver) BuildType() BuildType {
	return BuildTypeToken
}

func (r *TokenResolver) Resolve(ctx context.Context, longURL string, ttl time.Duration) (Resolution, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		code := r.generate()
		if len(code) <= 1 || r.filter.Contains(code) {
			continue
		}

		ok, err := r.cache.SetIfAbsent(ctx, code, longURL, ttl)
		if err != nil {
			return Resolution{}, fmt.Errorf("reserve %q: %w", code, err)
		}

		if ok {
			r.filter.Add(code)

			return Resolution{Code: code}, nil
		}
	}

	return Resolution{}, ErrGenerationExhausted
}
