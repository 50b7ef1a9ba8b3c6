package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/middleware"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/server"
	"github.com/deppfellow/calculator-api/internal/service"
	"github.com/deppfellow/calculator-api/internal/validation"
)

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=2,max=50"`
	PhotoURL    *string `json:"photoURL" validate:"omitempty,url"`
}

func (r *UpdateProfileRequest) Validate() error { return validation.Struct(r) }

type UserResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *model.User `json:"user"`
}

// UserHandler serves /api/users/me. Routes are behind RequireAuth.
type UserHandler struct {
	Handler
	users *service.UserService
}

func NewUserHandler(s *server.Server, services *service.Services) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(s),
		users:   services.User,
	}
}

func (h *UserHandler) Me() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *EmptyRequest) (*UserResponse, error) {
		user, err := h.users.Profile(c.Request().Context(), middleware.GetUserID(c))
		if err != nil {
			return nil, err
		}
		return &UserResponse{Success: true, User: user}, nil
	}, http.StatusOK, &EmptyRequest{})
}

func (h *UserHandler) UpdateMe() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *UpdateProfileRequest) (*UserResponse, error) {
		user, err := h.users.UpdateProfile(c.Request().Context(), middleware.GetUserID(c), identity.AccountUpdate{
			DisplayName: req.DisplayName,
			PhotoURL:    req.PhotoURL,
		})
		if err != nil {
			return nil, err
		}
		return &UserResponse{Success: true, Message: "Profile updated successfully", User: user}, nil
	}, http.StatusOK, &UpdateProfileRequest{})
}

func (h *UserHandler) DeleteMe() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *EmptyRequest) (*MessageResponse, error) {
		if err := h.users.DeleteAccount(c.Request().Context(), middleware.GetUserID(c)); err != nil {
			return nil, err
		}
		return &MessageResponse{Success: true, Message: "Account deleted successfully"}, nil
	}, http.StatusOK, &EmptyRequest{})
}
