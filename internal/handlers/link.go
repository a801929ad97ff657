package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/miniuri/shortlink/internal/analytics"
	"github.com/miniuri/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler exposes the short-link engine over HTTP.
type LinkHandler struct {
	engine      *shortener.Engine
	stats       analytics.StatsReader
	publisher   *analytics.Publisher
	baseURL     string
	fallbackURL string
	logger      *zap.Logger
}

// NewLinkHandler creates a link handler. fallbackURL is where unknown codes
// are redirected; an unknown code is not an error at this boundary.
func NewLinkHandler(
	engine *shortener.Engine,
	stats analytics.StatsReader,
	publisher *analytics.Publisher,
	baseURL, fallbackURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		engine:      engine,
		stats:       stats,
		publisher:   publisher,
		baseURL:     baseURL,
		fallbackURL: fallbackURL,
		logger:      logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	code, err := h.engine.Generate(ctx, req.Body.URL, shortener.GenerateOptions{
		Strategy:   shortener.Strategy(req.Body.Strategy),
		ExpireDays: req.Body.ExpireDays,
	})
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidURL):
			return nil, huma.Error400BadRequest("invalid url")
		case errors.Is(err, shortener.ErrUnknownStrategy):
			return nil, huma.Error400BadRequest("invalid strategy: must be 'hash' or 'token'")
		case errors.Is(err, shortener.ErrGenerationExhausted):
			return nil, huma.Error503ServiceUnavailable("short code space exhausted for this url, retry later")
		default:
			h.logger.Error("generate failed", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to generate short link")
		}
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		Code:      code,
		LongURL:   req.Body.URL,
		CreatedAt: time.Now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publisher.PublishLinkCreated(event); err != nil {
		h.logger.Error("failed to publish link created event",
			zap.String("code", code),
			zap.Error(err),
		)
	}

	shortURL := fmt.Sprintf("%s/%s", h.baseURL, code)

	resp := &CreateLinkResponse{}
	resp.Headers.Location = shortURL
	resp.Body.Code = code
	resp.Body.ShortURL = shortURL
	resp.Body.LongURL = req.Body.URL

	return resp, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	longURL, err := h.engine.Resolve(ctx, req.Code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			resp := &RedirectResponse{Status: http.StatusFound}
			resp.Headers.Location = h.fallbackURL

			return resp, nil
		}

		h.logger.Error("resolve failed", zap.String("code", req.Code), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to resolve short link")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkVisitedEvent{
		Code:      req.Code,
		VisitorID: meta.VisitorID,
		VisitedAt: time.Now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if err := h.publisher.PublishLinkVisited(event); err != nil {
		h.logger.Error("failed to publish link visited event",
			zap.String("code", req.Code),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{Status: http.StatusMovedPermanently}
	resp.Headers.Location = longURL

	return resp, nil
}

func (h *LinkHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	days := req.Days
	if days == 0 {
		days = 7
	}

	stats, err := h.stats.GetStats(ctx, req.Code, days)
	if err != nil {
		h.logger.Error("stats lookup failed", zap.String("code", req.Code), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load stats")
	}

	resp := &StatsResponse{}
	resp.Body.Code = req.Code
	resp.Body.Stats = make([]DailyStat, 0, len(stats))

	for _, s := range stats {
		resp.Body.Stats = append(resp.Body.Stats, DailyStat{Date: s.Date, PV: s.PV, UV: s.UV})
	}

	return resp, nil
}
