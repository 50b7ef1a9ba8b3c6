package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/calculator"
	"github.com/deppfellow/calculator-api/internal/middleware"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/server"
	"github.com/deppfellow/calculator-api/internal/service"
	"github.com/deppfellow/calculator-api/internal/validation"
)

// CalculateRequest keeps the operands raw; the calculator validates them.
type CalculateRequest struct {
	Num1      json.RawMessage `json:"num1"`
	Num2      json.RawMessage `json:"num2"`
	Operation json.RawMessage `json:"operation"`
}

func (r *CalculateRequest) Validate() error { return nil }

type HistoryRequest struct {
	Limit string `query:"limit"`
}

func (r *HistoryRequest) Validate() error { return nil }

// limit reads the leading integer of the query value ("10abc" is 10), or 0
// (the default) when it does not start with one.
func (r *HistoryRequest) limit() int {
	s := strings.TrimSpace(r.Limit)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

type DeleteCalculationRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (r *DeleteCalculationRequest) Validate() error { return validation.Struct(r) }

type HistoryResponse struct {
	Success      bool                `json:"success"`
	Count        int                 `json:"count"`
	Calculations []model.Calculation `json:"calculations"`
}

type StatsResponse struct {
	Success bool                    `json:"success"`
	Stats   *model.CalculationStats `json:"stats"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CalculatorHandler struct {
	Handler
	calculator *service.CalculatorService
}

func NewCalculatorHandler(s *server.Server, services *service.Services) *CalculatorHandler {
	return &CalculatorHandler{
		Handler:    NewHandler(s),
		calculator: services.Calculator,
	}
}

// Calculate is POST /api/calculator/calculate (and /api/calculate).
func (h *CalculatorHandler) Calculate() echo.HandlerFunc {
	return HandleEnvelope(h.Handler, func(c echo.Context, req *CalculateRequest) (*service.CalculationResult, error) {
		loc := calculator.MatchLocale(c.Request().Header.Get("Accept-Language"))
		in := calculator.Input{Num1: req.Num1, Num2: req.Num2, Operation: req.Operation}

		return h.calculator.Calculate(c.Request().Context(), in, loc, middleware.OwnerID(c)), nil
	}, &CalculateRequest{})
}

// History is GET /api/calculator/history.
func (h *CalculatorHandler) History() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *HistoryRequest) (*HistoryResponse, error) {
		calculations, err := h.calculator.History(c.Request().Context(), middleware.OwnerID(c), req.limit())
		if err != nil {
			return nil, err
		}
		return &HistoryResponse{Success: true, Count: len(calculations), Calculations: calculations}, nil
	}, http.StatusOK, &HistoryRequest{})
}

// Delete is DELETE /api/calculator/history/:id.
func (h *CalculatorHandler) Delete() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *DeleteCalculationRequest) (*MessageResponse, error) {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, err
		}
		if err := h.calculator.DeleteCalculation(c.Request().Context(), middleware.OwnerID(c), id); err != nil {
			return nil, err
		}
		return &MessageResponse{Success: true, Message: "Calculation deleted"}, nil
	}, http.StatusOK, &DeleteCalculationRequest{})
}

// Stats is GET /api/calculator/stats.
func (h *CalculatorHandler) Stats() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *EmptyRequest) (*StatsResponse, error) {
		stats, err := h.calculator.Stats(c.Request().Context(), middleware.OwnerID(c))
		if err != nil {
			return nil, err
		}
		return &StatsResponse{Success: true, Stats: stats}, nil
	}, http.StatusOK, &EmptyRequest{})
}
