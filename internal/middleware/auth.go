package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/calculator-api/internal/errs"
	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/server"
)

var (
	errNoToken            = errs.NewUnauthorizedError("No authorization token provided", false)
	errInvalidToken       = errs.NewUnauthorizedError("Invalid or expired token", false)
	errIdentityNotEnabled = errs.NewServiceUnavailableError("Authentication service not available")
)

// AuthMiddleware verifies bearer tokens through the identity collaborator.
type AuthMiddleware struct {
	server *server.Server
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// authenticate verifies the Authorization header. It returns errNoToken when
// no bearer token was sent.
func (auth *AuthMiddleware) authenticate(c echo.Context) (*identity.Subject, error) {
	token, ok := identity.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, errNoToken
	}

	if auth.server.Identity == nil {
		return nil, errIdentityNotEnabled
	}

	ctx := c.Request().Context()

	revoked, err := auth.server.Denylist.IsRevoked(ctx, token)
	if err != nil {
		GetLogger(c).Warn().Err(err).Msg("token denylist unavailable, skipping revocation check")
	}
	if revoked {
		return nil, errInvalidToken
	}

	subject, err := auth.server.Identity.VerifyCredential(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			GetLogger(c).Warn().Err(err).Msg("token verification failed")
		}
		return nil, errInvalidToken
	}

	return subject, nil
}

// RequireAuth rejects the request unless it carries a valid bearer token:
// 401 without a token or with an invalid one, 503 when no identity provider
// is configured.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		subject, err := auth.authenticate(c)
		if err != nil {
			GetLogger(c).Debug().
				Str("function", "RequireAuth").
				Dur("duration", time.Since(start)).
				Err(err).
				Msg("request not authenticated")
			return err
		}

		setSubject(c, subject)

		GetLogger(c).Debug().
			Str("function", "RequireAuth").
			Dur("duration", time.Since(start)).
			Msg("user authenticated successfully")

		return next(c)
	}
}

// OptionalAuth attaches the caller when a valid token is present and
// continues anonymously otherwise. It never fails the request.
func (auth *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		subject, err := auth.authenticate(c)
		if err == nil {
			setSubject(c, subject)
		} else if err != errNoToken {
			GetLogger(c).Debug().Err(err).Msg("continuing anonymously")
		}
		return next(c)
	}
}
