package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/errs"
	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/lib/job"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/server"
)

// ClientSideLoginMessage answers login for providers that sign users in on
// the client.
const ClientSideLoginMessage = "Login should be handled on the client side using the identity provider SDK"

// LoginResult is the outcome of Login. Tokens is nil for client-side providers.
type LoginResult struct {
	Tokens  *identity.TokenPair
	User    *model.User
	Message string
}

type AuthService struct {
	logger   *zerolog.Logger
	identity identity.Provider
	denylist *identity.Denylist
	jobs     *job.JobService
}

func NewAuthService(s *server.Server) *AuthService {
	return &AuthService{
		logger:   s.Logger,
		identity: s.Identity,
		denylist: s.Denylist,
		jobs:     s.Job,
	}
}

// Register creates an account and schedules the welcome email.
func (s *AuthService) Register(ctx context.Context, account identity.NewAccount) (*model.User, error) {
	if s.identity == nil {
		return nil, errIdentityUnavailable
	}

	user, err := s.identity.CreateAccount(ctx, account)
	if err != nil {
		return nil, identityError(err)
	}

	if s.jobs != nil {
		if err := s.jobs.EnqueueWelcomeEmail(ctx, user.Email, user.DisplayName); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.UID).Msg("failed to enqueue welcome email")
		}
	}

	return user, nil
}

// Login exchanges credentials for tokens when the provider supports it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.identity == nil {
		return nil, errIdentityUnavailable
	}

	authenticator, ok := s.identity.(identity.PasswordAuthenticator)
	if !ok {
		return &LoginResult{Message: ClientSideLoginMessage}, nil
	}

	tokens, user, err := authenticator.SignIn(ctx, email, password)
	if err != nil {
		return nil, identityError(err)
	}

	return &LoginResult{Tokens: tokens, User: user, Message: "Login successful"}, nil
}

// Verify checks a token the way the auth middleware does.
func (s *AuthService) Verify(ctx context.Context, token string) (*identity.Subject, error) {
	if token == "" {
		return nil, errs.NewBadRequestError("Token is required", true, nil, nil, nil)
	}
	if s.identity == nil {
		return nil, errIdentityUnavailable
	}

	if revoked, err := s.denylist.IsRevoked(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("token denylist unavailable, skipping revocation check")
	} else if revoked {
		return nil, errInvalidToken
	}

	subject, err := s.identity.VerifyCredential(ctx, token)
	if err != nil {
		return nil, identityError(err)
	}
	return subject, nil
}

// Logout revokes token until it expires. It succeeds even when the token is
// absent, invalid, or there is nowhere to record the revocation.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" || s.identity == nil || s.denylist == nil {
		return
	}

	subject, err := s.identity.VerifyCredential(ctx, token)
	if err != nil {
		return
	}

	if err := s.denylist.Revoke(ctx, token, subject.ExpiresAt); err != nil {
		s.logger.Warn().Err(err).Str("user_id", subject.UID).Msg("failed to revoke token on logout")
	}
}

// Refresh trades a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error) {
	if s.identity == nil {
		return nil, errIdentityUnavailable
	}

	authenticator, ok := s.identity.(identity.PasswordAuthenticator)
	if !ok {
		return nil, errs.NewBadRequestError("Token refresh is not supported by the configured identity provider", true, nil, nil, nil)
	}

	tokens, err := authenticator.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, identityError(err)
	}
	return tokens, nil
}

var errInvalidToken = errs.NewUnauthorizedError("Invalid or expired token", true)

var passwordTooLongMessage = fmt.Sprintf("Password must not exceed %d bytes", identity.MaxPasswordBytes)

// identityError maps identity sentinels to HTTP errors. Anything else is
// returned unchanged and ends up as a generic 500.
func identityError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		return errs.NewConflictError("Email already exists")
	case errors.Is(err, identity.ErrInvalidCredentials):
		return errs.NewUnauthorizedError("Invalid email or password", true)
	case errors.Is(err, identity.ErrInvalidToken):
		return errInvalidToken
	case errors.Is(err, identity.ErrAccountNotFound):
		return errs.NewNotFoundError("User not found", true, nil)
	case errors.Is(err, identity.ErrPasswordTooLong):
		return errs.NewBadRequestError(passwordTooLongMessage, true, nil, nil, nil)
	default:
		return err
	}
}
