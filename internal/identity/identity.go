// Package identity verifies bearer credentials and manages user accounts.
//
// Two providers implement Provider:
//
//   - ClerkProvider delegates to Clerk (managed identity, session JWTs)
//   - LocalProvider keeps accounts in sqlite and issues its own HS256 tokens
//
// The provider is optional. New returns (nil, nil) when auth.provider is
// empty, and callers treat a nil Provider as "identity not configured".
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/model"
)

var (
	// ErrInvalidToken covers missing, malformed, expired and revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials is returned by SignIn for a wrong email/password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailExists is returned by CreateAccount for a taken email.
	ErrEmailExists = errors.New("email already exists")

	// ErrAccountNotFound is returned when the uid does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password too long")
)

// Subject is the verified identity behind a bearer token.
type Subject struct {
	UID           string
	Email         string
	EmailVerified bool
	ExpiresAt     time.Time
}

// NewAccount is the input of CreateAccount.
type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
}

// AccountUpdate carries optional profile changes; nil fields stay as they are.
type AccountUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// TokenPair is returned by providers that sign users in server-side.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// Provider is the identity collaborator.
type Provider interface {
	// Name identifies the provider in logs and health output.
	Name() string

	VerifyCredential(ctx context.Context, token string) (*Subject, error)
	CreateAccount(ctx context.Context, account NewAccount) (*model.User, error)
	GetAccount(ctx context.Context, uid string) (*model.User, error)
	UpdateAccount(ctx context.Context, uid string, update AccountUpdate) (*model.User, error)
	DeleteAccount(ctx context.Context, uid string) error
}

// PasswordAuthenticator is implemented by providers that can exchange
// credentials for tokens on the server.
type PasswordAuthenticator interface {
	SignIn(ctx context.Context, email, password string) (*TokenPair, *model.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// Pinger is implemented by providers with a reachable backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New builds the provider selected by cfg.Provider.
func New(cfg config.AuthConfig, logger *zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.AuthProviderNone:
		logger.Warn().Msg("no identity provider configured, authenticated routes will answer 503")
		return nil, nil
	case config.AuthProviderClerk:
		return NewClerkProvider(cfg.SecretKey), nil
	case config.AuthProviderLocal:
		local, err := NewLocalProvider(cfg.Local, logger)
		if err != nil {
			return nil, err
		}
		return local, nil
	default:
		return nil, fmt.Errorf("unknown identity provider: %s", cfg.Provider)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. ok is false when the header is missing or uses another scheme.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// DefaultDisplayName derives a display name from the email local part.
func DefaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
