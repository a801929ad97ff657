package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/miniuri/shortlink/internal/ratelimit"
)

// RateLimiter limits operations whose metadata carries ratelimit.MetadataKey,
// keyed by client IP.
func RateLimiter(api huma.API, limiter ratelimit.Limiter) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op == nil || op.Metadata[ratelimit.MetadataKey] == nil {
			next(ctx)

			return
		}

		allowed, err := limiter.Allow(ctx.Context(), extractClientIP(ctx))
		if err != nil {
			// A broken limiter store must not take the endpoint down.
			next(ctx)

			return
		}

		if !allowed {
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}
