package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/server"
	"github.com/deppfellow/calculator-api/internal/service"
	"github.com/deppfellow/calculator-api/internal/validation"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,maxbytes=72"`
	DisplayName string `json:"displayName" validate:"omitempty,min=2,max=50"`
}

func (r *RegisterRequest) Validate() error { return validation.Struct(r) }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error { return validation.Struct(r) }

// VerifyRequest has no tags; a missing token is answered by the service with
// its own message.
type VerifyRequest struct {
	Token string `json:"token"`
}

func (r *VerifyRequest) Validate() error { return nil }

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (r *RefreshRequest) Validate() error { return validation.Struct(r) }

// RegisteredUser is the public part of a new account.
type RegisteredUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type RegisterResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    RegisteredUser `json:"user"`
}

type LoginResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Tokens  *identity.TokenPair `json:"tokens,omitempty"`
	User    *model.User         `json:"user,omitempty"`
}

type VerifiedUser struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

type VerifyResponse struct {
	Success bool         `json:"success"`
	User    VerifiedUser `json:"user"`
}

type RefreshResponse struct {
	Success bool                `json:"success"`
	Tokens  *identity.TokenPair `json:"tokens"`
}

type AuthHandler struct {
	Handler
	auth *service.AuthService
}

func NewAuthHandler(s *server.Server, services *service.Services) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    services.Auth,
	}
}

func (h *AuthHandler) Register() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *RegisterRequest) (*RegisterResponse, error) {
		user, err := h.auth.Register(c.Request().Context(), identity.NewAccount{
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
		})
		if err != nil {
			return nil, err
		}

		return &RegisterResponse{
			Success: true,
			Message: "User registered successfully",
			User:    RegisteredUser{UID: user.UID, Email: user.Email, DisplayName: user.DisplayName},
		}, nil
	}, http.StatusCreated, &RegisterRequest{})
}

func (h *AuthHandler) Login() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *LoginRequest) (*LoginResponse, error) {
		res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return nil, err
		}
		return &LoginResponse{Success: true, Message: res.Message, Tokens: res.Tokens, User: res.User}, nil
	}, http.StatusOK, &LoginRequest{})
}

func (h *AuthHandler) Verify() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *VerifyRequest) (*VerifyResponse, error) {
		subject, err := h.auth.Verify(c.Request().Context(), req.Token)
		if err != nil {
			return nil, err
		}
		return &VerifyResponse{
			Success: true,
			User:    VerifiedUser{UID: subject.UID, Email: subject.Email, EmailVerified: subject.EmailVerified},
		}, nil
	}, http.StatusOK, &VerifyRequest{})
}

// Logout revokes the bearer token, if any. It always succeeds.
func (h *AuthHandler) Logout() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *EmptyRequest) (*MessageResponse, error) {
		token, _ := identity.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		h.auth.Logout(c.Request().Context(), token)
		return &MessageResponse{Success: true, Message: "Logout successful"}, nil
	}, http.StatusOK, &EmptyRequest{})
}

func (h *AuthHandler) Refresh() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *RefreshRequest) (*RefreshResponse, error) {
		tokens, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
		if err != nil {
			return nil, err
		}
		return &RefreshResponse{Success: true, Tokens: tokens}, nil
	}, http.StatusOK, &RefreshRequest{})
}
