package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/miniuri/shortlink/internal/handlers"
)

// RequestMeta adds client IP, user agent, referrer and a stable visitor ID
// to the request context for analytics.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		ip := extractClientIP(ctx)
		ua := ctx.Header("User-Agent")

		meta := handlers.RequestMeta{
			ClientIP:  ip,
			UserAgent: ua,
			Referrer:  ctx.Header("Referer"),
			VisitorID: visitorID(ip, ua),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// visitorID derives a stable pseudonymous ID from IP and user agent so UV
// estimates count a browser once per day without storing raw identity.
func visitorID(ip, ua string) string {
	if ip == "" && ua == "" {
		return uuid.NewString()
	}

	sum := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(sum[:8])
}

func extractClientIP(ctx huma.Context) string {
	// X-Forwarded-For may hold several IPs; the first is the client.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	host := ctx.Host()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}

	return host
}
