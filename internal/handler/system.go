package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/server"
)

type BannerResponse struct {
	Message       string `json:"message"`
	Documentation string `json:"documentation"`
	Health        string `json:"health"`
	Version       string `json:"version"`
}

// SystemHandler serves the service banner at /.
type SystemHandler struct {
	Handler
}

func NewSystemHandler(s *server.Server) *SystemHandler {
	return &SystemHandler{Handler: NewHandler(s)}
}

func (h *SystemHandler) Banner(c echo.Context) error {
	return c.JSON(http.StatusOK, BannerResponse{
		Message:       "Calculator API",
		Documentation: "/api/docs",
		Health:        "/health",
		Version:       config.Version,
	})
}
