package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/errs"
	"github.com/deppfellow/calculator-api/internal/lib/ratelimit"
	"github.com/deppfellow/calculator-api/internal/server"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimitMiddleware limits /api requests per client IP. It is a
// pass-through when disabled or when Redis is not configured.
type RateLimitMiddleware struct {
	server  *server.Server
	limiter *ratelimit.Limiter
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	r := &RateLimitMiddleware{server: s}

	cfg := s.Config.RateLimit
	if cfg.Enabled && s.Redis != nil {
		r.limiter = ratelimit.NewLimiter(s.Redis, ratelimit.DefaultKeyPrefix, cfg.Limit, cfg.Window)
	}

	return r
}

// Limit enforces the window. Redis failures let the request through.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if r.limiter == nil {
			return next
		}

		return func(c echo.Context) error {
			result, err := r.limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				GetLogger(c).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				r.RecordRateLimitHit(c.Path())
				return errs.NewTooManyRequestsError(rateLimitMessage)
			}

			return next(c)
		}
	}
}

// RecordRateLimitHit records a New Relic custom event for a rejected request.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}
