package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/handler"
	"github.com/deppfellow/calculator-api/internal/middleware"
)

// registerAPIRoutes registers /api. Every route is rate limited; calculator
// routes accept anonymous callers, user routes require a token.
func registerAPIRoutes(r *echo.Echo, h *handler.Handlers, mw *middleware.Middlewares) {
	api := r.Group("/api", mw.RateLimit.Limit())

	api.POST("/calculate", h.Calculator.Calculate(), mw.Auth.OptionalAuth)

	calc := api.Group("/calculator", mw.Auth.OptionalAuth)
	calc.POST("/calculate", h.Calculator.Calculate())
	calc.GET("/history", h.Calculator.History())
	calc.DELETE("/history/:id", h.Calculator.Delete())
	calc.GET("/stats", h.Calculator.Stats())

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register())
	auth.POST("/login", h.Auth.Login())
	auth.POST("/verify", h.Auth.Verify())
	auth.POST("/logout", h.Auth.Logout())
	auth.POST("/refresh", h.Auth.Refresh())

	users := api.Group("/users", mw.Auth.RequireAuth)
	users.GET("/me", h.User.Me())
	users.PUT("/me", h.User.UpdateMe())
	users.DELETE("/me", h.User.DeleteMe())
}
