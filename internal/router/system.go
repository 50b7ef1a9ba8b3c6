package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/handler"
)

// registerSystemRoutes registers the endpoints outside the business API.
// They are not rate limited.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.System.Banner)

	r.GET("/health", h.Health.CheckHealth)
	r.GET("/api/health", h.Health.CheckHealth)

	r.StaticFS("/static", handler.StaticFS())
	r.GET("/api/docs", h.OpenAPI.ServeOpenAPIUI)
}
