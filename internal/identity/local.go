package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/model"
)

// account is the sqlite row behind a local user.
type account struct {
	ID           string `gorm:"primaryKey;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	DisplayName  string `gorm:"type:text"`
	PhotoURL     string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (account) TableName() string {
	return "accounts"
}

func (a *account) toUser() *model.User {
	return &model.User{
		UID:         a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		// Local accounts have no email verification step.
		EmailVerified: false,
		CreatedAt:     a.CreatedAt,
	}
}

// LocalProvider is a self-hosted identity provider: accounts in sqlite via
// gorm, bcrypt password hashes and HS256 access/refresh tokens.
type LocalProvider struct {
	db     *gorm.DB
	tokens *TokenManager
	hasher *PasswordHasher
	log    *zerolog.Logger
}

var (
	_ Provider              = (*LocalProvider)(nil)
	_ PasswordAuthenticator = (*LocalProvider)(nil)
	_ Pinger                = (*LocalProvider)(nil)
)

// NewLocalProvider opens (and migrates) the sqlite account store.
func NewLocalProvider(cfg config.LocalAuthConfig, logger *zerolog.Logger) (*LocalProvider, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening account store: %w", err)
	}

	return newLocalProvider(db, NewTokenManager(cfg.JWTSecret, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL), NewPasswordHasher(DefaultBcryptCost), logger)
}

func newLocalProvider(db *gorm.DB, tokens *TokenManager, hasher *PasswordHasher, logger *zerolog.Logger) (*LocalProvider, error) {
	if err := db.AutoMigrate(&account{}); err != nil {
		return nil, fmt.Errorf("migrating account store: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &LocalProvider{db: db, tokens: tokens, hasher: hasher, log: logger}, nil
}

func (p *LocalProvider) Name() string { return config.AuthProviderLocal }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) find(ctx context.Context, query string, arg string) (*account, error) {
	var acc account
	err := p.db.WithContext(ctx).First(&acc, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// VerifyCredential validates a local access token and loads its account.
func (p *LocalProvider) VerifyCredential(ctx context.Context, token string) (*Subject, error) {
	claims, err := p.tokens.ValidateAccess(token)
	if err != nil {
		return nil, err
	}

	acc, err := p.find(ctx, "id = ?", claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Tokens of deleted accounts stop working immediately.
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &Subject{
		UID:       acc.ID,
		Email:     acc.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *LocalProvider) CreateAccount(ctx context.Context, req NewAccount) (*model.User, error) {
	hash, err := p.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	email := normalizeEmail(req.Email)
	displayName := req.DisplayName
	if displayName == "" {
		displayName = DefaultDisplayName(email)
	}

	acc := &account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	}

	if err := p.db.WithContext(ctx).Create(acc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return acc.toUser(), nil
}

func (p *LocalProvider) GetAccount(ctx context.Context, uid string) (*model.User, error) {
	acc, err := p.find(ctx, "id = ?", uid)
	if err != nil {
		return nil, err
	}
	return acc.toUser(), nil
}

func (p *LocalProvider) UpdateAccount(ctx context.Context, uid string, update AccountUpdate) (*model.User, error) {
	acc, err := p.find(ctx, "id = ?", uid)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.DisplayName != nil {
		changes["display_name"] = *update.DisplayName
	}
	if update.PhotoURL != nil {
		changes["photo_url"] = *update.PhotoURL
	}

	if len(changes) > 0 {
		if err := p.db.WithContext(ctx).Model(acc).Updates(changes).Error; err != nil {
			return nil, err
		}
	}

	return p.GetAccount(ctx, uid)
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, uid string) error {
	result := p.db.WithContext(ctx).Delete(&account{}, "id = ?", uid)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SignIn checks the password and issues a token pair.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	acc, err := p.find(ctx, "email = ?", normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !p.hasher.Verify(password, acc.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := p.tokens.Issue(acc.ID, acc.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("issuing tokens: %w", err)
	}

	p.log.Debug().Str("user_id", acc.ID).Msg("local sign-in succeeded")
	return tokens, acc.toUser(), nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := p.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	acc, err := p.find(ctx, "id = ?", claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return p.tokens.Issue(acc.ID, acc.Email)
}

// Ping checks the sqlite handle.
func (p *LocalProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the sqlite handle.
func (p *LocalProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
