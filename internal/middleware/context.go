package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/logger"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/server"
)

const (
	// UserIDKey holds the verified subject id. Unset for anonymous callers.
	UserIDKey = "user_id"

	// UserEmailKey holds the verified subject email, when known.
	UserEmailKey = "user_email"

	// SubjectKey holds the full *identity.Subject.
	SubjectKey = "identity_subject"

	// LoggerKey holds the request-scoped *zerolog.Logger.
	LoggerKey = "logger"
)

type loggerCtxKey struct{}

// ContextEnhancer builds the request-scoped logger.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext stores a logger carrying request_id, method, path, ip and
// the New Relic trace context in both the echo context and the request
// context.
//
// It runs before authentication, so the auth middleware adds user_id to this
// logger itself once the caller is known.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			if userID := GetUserID(c); userID != "" {
				contextLogger = contextLogger.With().Str("user_id", userID).Logger()
			}

			setLogger(c, &contextLogger)
			return next(c)
		}
	}
}

func setLogger(c echo.Context, l *zerolog.Logger) {
	c.Set(LoggerKey, l)
	ctx := context.WithValue(c.Request().Context(), loggerCtxKey{}, l)
	c.SetRequest(c.Request().WithContext(ctx))
}

// setSubject records the verified caller and tags the request logger with it.
func setSubject(c echo.Context, subject *identity.Subject) {
	c.Set(UserIDKey, subject.UID)
	c.Set(UserEmailKey, subject.Email)
	c.Set(SubjectKey, subject)

	l := GetLogger(c).With().Str("user_id", subject.UID).Logger()
	setLogger(c, &l)
}

// GetUserID returns the verified subject id, or "".
func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetSubject returns the verified subject, or nil.
func GetSubject(c echo.Context) *identity.Subject {
	if subject, ok := c.Get(SubjectKey).(*identity.Subject); ok {
		return subject
	}
	return nil
}

// OwnerID is the record owner for the request: the subject id or "anonymous".
func OwnerID(c echo.Context) string {
	if userID := GetUserID(c); userID != "" {
		return userID
	}
	return model.AnonymousOwner
}

// GetLogger returns the request-scoped logger, or a no-op logger when
// EnhanceContext did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	l := zerolog.Nop()
	return &l
}

// LoggerFromContext is GetLogger for code that only sees a context.Context.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*zerolog.Logger); ok {
		return l
	}
	l := zerolog.Nop()
	return &l
}
