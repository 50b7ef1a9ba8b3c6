package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/lib/utils"
	"github.com/deppfellow/calculator-api/internal/middleware"
	"github.com/deppfellow/calculator-api/internal/server"
)

const (
	CheckHealthy   = "healthy"
	CheckUnhealthy = "unhealthy"
	CheckDisabled  = "disabled"
)

// CheckResult is one collaborator probe.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   string                 `json:"timestamp"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Version     string                 `json:"version"`
	Uptime      float64                `json:"uptime"`
	Checks      map[string]CheckResult `json:"checks,omitempty"`
}

type HealthHandler struct {
	Handler
	now func() time.Time
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		now:     time.Now,
	}
}

// CheckHealth always answers 200 "healthy": every collaborator is optional,
// so their state is reported per check without failing the probe.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := h.now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	obs := h.server.Config.Observability
	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   utils.ISOTimestamp(start),
		Service:     config.ServiceName,
		Environment: h.server.Config.Primary.Env,
		Version:     config.Version,
		Uptime:      start.Sub(h.server.StartedAt).Seconds(),
	}

	if obs != nil && obs.HealthChecks.Enabled {
		response.Checks = make(map[string]CheckResult)

		probes := map[string]func(context.Context) error{
			"database": h.pingDatabase(),
			"redis":    h.pingRedis(),
			"identity": h.pingIdentity(),
		}

		for _, name := range obs.HealthChecks.Checks {
			probe, ok := probes[name]
			if !ok {
				continue
			}
			result := runCheck(c.Request().Context(), obs.HealthChecks.Timeout, probe)
			response.Checks[name] = result

			if result.Status == CheckUnhealthy {
				logger.Warn().Str("check", name).Str("error", result.Error).Msg("health check failed")
				h.recordCheckFailure(name, result)
			}
		}
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check completed")

	return c.JSON(http.StatusOK, response)
}

// runCheck runs probe with a timeout. A nil probe means the collaborator is
// not configured.
func runCheck(ctx context.Context, timeout time.Duration, probe func(context.Context) error) CheckResult {
	if probe == nil {
		return CheckResult{Status: CheckDisabled}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	result := CheckResult{Status: CheckHealthy, ResponseTime: time.Since(start).String()}
	if err != nil {
		result.Status = CheckUnhealthy
		result.Error = err.Error()
	}
	return result
}

func (h *HealthHandler) pingDatabase() func(context.Context) error {
	if h.server.DB == nil {
		return nil
	}
	return h.server.DB.Ping
}

func (h *HealthHandler) pingRedis() func(context.Context) error {
	if h.server.Redis == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return h.server.Redis.Ping(ctx).Err()
	}
}

// pingIdentity probes providers with a local store; others are healthy
// once configured.
func (h *HealthHandler) pingIdentity() func(context.Context) error {
	if h.server.Identity == nil {
		return nil
	}
	if pinger, ok := h.server.Identity.(identity.Pinger); ok {
		return pinger.Ping
	}
	return func(context.Context) error { return nil }
}

func (h *HealthHandler) recordCheckFailure(name string, result CheckResult) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent(
		"HealthCheckError",
		map[string]interface{}{
			"check_type":    name,
			"operation":     "health_check",
			"error_type":    name + "_unhealthy",
			"error_message": result.Error,
		},
	)
}
