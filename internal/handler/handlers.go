package handler

import (
	"github.com/deppfellow/calculator-api/internal/server"
	"github.com/deppfellow/calculator-api/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	System     *SystemHandler
	Health     *HealthHandler
	OpenAPI    *OpenAPIHandler
	Calculator *CalculatorHandler
	Auth       *AuthHandler
	User       *UserHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		System:     NewSystemHandler(s),
		Health:     NewHealthHandler(s),
		OpenAPI:    NewOpenAPIHandler(s),
		Calculator: NewCalculatorHandler(s, services),
		Auth:       NewAuthHandler(s, services),
		User:       NewUserHandler(s, services),
	}
}
