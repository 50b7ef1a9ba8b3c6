package identity

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deppfellow/calculator-api/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()

	p, err := NewLocalProvider(config.LocalAuthConfig{
		DBPath:     filepath.Join(t.TempDir(), "accounts.db"),
		JWTSecret:  testSecret,
		Issuer:     "test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, nil)
	require.NoError(t, err)

	// Tests do not need production-strength hashing.
	p.hasher = NewPasswordHasher(bcrypt.MinCost)

	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	token, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, ok := BearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "ada", DefaultDisplayName("ada@example.com"))
	assert.Equal(t, "plain", DefaultDisplayName("plain"))
}

func TestNew_Disabled(t *testing.T) {
	nop := zeroLogger()
	p, err := New(config.AuthConfig{}, &nop)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTokenManager(t *testing.T) {
	m := NewTokenManager(testSecret, "test", time.Minute, time.Hour)

	pair, err := m.Issue("uid-1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.EqualValues(t, 60, pair.ExpiresIn)

	claims, err := m.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)

	// Access and refresh tokens are not interchangeable.
	_, err = m.ValidateAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ValidateRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("ffffffffffffffffffffffffffffffff", "test", time.Minute, time.Hour)
	_, err = other.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired.
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalProvider_AccountLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newTestLocalProvider(t)

	created, err := p.CreateAccount(ctx, NewAccount{Email: " Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "ada", created.DisplayName)
	assert.NotEmpty(t, created.UID)

	_, err = p.CreateAccount(ctx, NewAccount{Email: "ada@example.com", Password: "another"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, _, err = p.SignIn(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tokens, signedIn, err := p.SignIn(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, signedIn.UID)

	subject, err := p.VerifyCredential(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.UID, subject.UID)
	assert.Equal(t, "ada@example.com", subject.Email)
	assert.False(t, subject.ExpiresAt.IsZero())

	refreshed, err := p.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	name := "Ada Lovelace"
	photo := "https://example.com/ada.png"
	updated, err := p.UpdateAccount(ctx, created.UID, AccountUpdate{DisplayName: &name, PhotoURL: &photo})
	require.NoError(t, err)
	assert.Equal(t, name, updated.DisplayName)
	assert.Equal(t, photo, updated.PhotoURL)

	require.NoError(t, p.Ping(ctx))

	require.NoError(t, p.DeleteAccount(ctx, created.UID))
	assert.ErrorIs(t, p.DeleteAccount(ctx, created.UID), ErrAccountNotFound)

	_, err = p.GetAccount(ctx, created.UID)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// Tokens of a deleted account are rejected.
	_, err = p.VerifyCredential(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDenylist_NilIsPermissive(t *testing.T) {
	var d *Denylist
	assert.Nil(t, NewDenylist(nil))

	require.NoError(t, d.Revoke(context.Background(), "t", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(context.Background(), "t")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestDenylistKey_HashesToken(t *testing.T) {
	key := denylistKey("secret-token")
	assert.NotContains(t, key, "secret-token")
	assert.Len(t, key, len(denylistPrefix)+64)
	assert.Equal(t, key, denylistKey("secret-token"))
}

func zeroLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestPasswordHasher_RejectsOverlongPasswords(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash(strings.Repeat("x", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("x", MaxPasswordBytes), hash))

	_, err = h.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// 25 three-byte runes: under 72 characters, over 72 bytes.
	_, err = h.Hash(strings.Repeat("א", 25))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestLocalProvider_CreateAccountPasswordTooLong(t *testing.T) {
	p := newTestLocalProvider(t)

	_, err := p.CreateAccount(context.Background(), NewAccount{
		Email:    "ada@example.com",
		Password: strings.Repeat("x", 80),
	})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
