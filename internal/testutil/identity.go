package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/model"
)

// FakeIdentity is an in-memory identity provider. Tokens are "token-<uid>".
type FakeIdentity struct {
	mu       sync.Mutex
	accounts map[string]*model.User
	emails   map[string]string
	next     int
}

var _ identity.Provider = (*FakeIdentity)(nil)

func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		accounts: map[string]*model.User{},
		emails:   map[string]string{},
	}
}

// TokenFor returns a token VerifyCredential accepts for uid.
func TokenFor(uid string) string {
	return "token-" + uid
}

func (f *FakeIdentity) Name() string { return "fake" }

func (f *FakeIdentity) VerifyCredential(_ context.Context, token string) (*identity.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uid, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	user, ok := f.accounts[uid]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Subject{
		UID:           user.UID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		ExpiresAt:     time.Now().Add(time.Hour),
	}, nil
}

func (f *FakeIdentity) CreateAccount(_ context.Context, account identity.NewAccount) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, taken := f.emails[account.Email]; taken {
		return nil, identity.ErrEmailExists
	}

	f.next++
	uid := "user" + strings.Repeat("x", f.next)
	displayName := account.DisplayName
	if displayName == "" {
		displayName = identity.DefaultDisplayName(account.Email)
	}

	user := &model.User{
		UID:         uid,
		Email:       account.Email,
		DisplayName: displayName,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.accounts[uid] = user
	f.emails[account.Email] = uid

	out := *user
	return &out, nil
}

func (f *FakeIdentity) GetAccount(_ context.Context, uid string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.accounts[uid]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	out := *user
	return &out, nil
}

func (f *FakeIdentity) UpdateAccount(ctx context.Context, uid string, update identity.AccountUpdate) (*model.User, error) {
	f.mu.Lock()
	user, ok := f.accounts[uid]
	if ok {
		if update.DisplayName != nil {
			user.DisplayName = *update.DisplayName
		}
		if update.PhotoURL != nil {
			user.PhotoURL = *update.PhotoURL
		}
	}
	f.mu.Unlock()

	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	return f.GetAccount(ctx, uid)
}

func (f *FakeIdentity) DeleteAccount(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.accounts[uid]
	if !ok {
		return identity.ErrAccountNotFound
	}
	delete(f.emails, user.Email)
	delete(f.accounts, uid)
	return nil
}

// MustCreate registers an account and returns it with a valid token.
func (f *FakeIdentity) MustCreate(email string) (*model.User, string) {
	user, err := f.CreateAccount(context.Background(), identity.NewAccount{Email: email, Password: "secret1"})
	if err != nil {
		panic(err)
	}
	return user, TokenFor(user.UID)
}

// FakePasswordIdentity adds server-side sign-in. Every password is
// "secret1"; refresh tokens are "refresh-<uid>".
type FakePasswordIdentity struct {
	*FakeIdentity
}

var _ identity.PasswordAuthenticator = FakePasswordIdentity{}

func NewFakePasswordIdentity() FakePasswordIdentity {
	return FakePasswordIdentity{FakeIdentity: NewFakeIdentity()}
}

func (f FakePasswordIdentity) SignIn(ctx context.Context, email, password string) (*identity.TokenPair, *model.User, error) {
	f.mu.Lock()
	uid, ok := f.emails[email]
	f.mu.Unlock()

	if !ok || password != "secret1" {
		return nil, nil, identity.ErrInvalidCredentials
	}
	user, err := f.GetAccount(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	return pair(uid), user, nil
}

func (f FakePasswordIdentity) Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error) {
	uid, ok := strings.CutPrefix(refreshToken, "refresh-")
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	if _, err := f.GetAccount(ctx, uid); err != nil {
		return nil, identity.ErrInvalidToken
	}
	return pair(uid), nil
}

func pair(uid string) *identity.TokenPair {
	return &identity.TokenPair{
		AccessToken:  TokenFor(uid),
		RefreshToken: "refresh-" + uid,
		ExpiresIn:    900,
		TokenType:    "Bearer",
	}
}
