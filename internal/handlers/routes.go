package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/miniuri/shortlink/internal/ratelimit"
)

// RegisterRoutes registers the short-link routes. Only the write endpoint is
// rate limited; redirects are the hot path and stay unguarded.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-link",
		Method:      http.MethodPost,
		Path:        "/api/links",
		Summary:     "Create short link",
		Description: "Generates a short code for the URL. The link is usable immediately; durability follows asynchronously.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: true,
		},
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}/stats",
		Summary:     "Daily traffic for a short link",
		Tags:        []string{"Links"},
	}, h.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to the original URL",
		Description: "Redirects to the URL behind the short code; unknown codes redirect to the fallback page.",
		Tags:        []string{"Links"},
	}, h.Redirect)
}
