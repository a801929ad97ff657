package shortener

import "errors"

var (
	// ErrInvalidURL is returned when the input is not a well-formed URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotFound is returned when no live mapping exists for a short code.
	ErrNotFound = errors.New("short code not found")

	// ErrGenerationExhausted is returned after the retry budget and the
	// salvage attempt both failed to reserve a free code.
	ErrGenerationExhausted = errors.New("short code generation exhausted")

	// ErrCacheMiss is returned by Cache.Get when no entry exists for a code.
	// Any other cache error means the cache is unreachable and must never be
	// read as "the slot is free".
	ErrCacheMiss = errors.New("cache entry not found")

	// ErrUnknownStrategy is returned when a request names a build strategy
	// the engine was not configured with.
	ErrUnknownStrategy = errors.New("unknown build strategy")
)
