package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/model"
)

// clerkEmailTaken is the Clerk API error code for a duplicate email.
const clerkEmailTaken = "form_identifier_exists"

// ClerkProvider verifies Clerk session tokens and manages Clerk users.
//
// Clerk signs users in on the client, so it does not implement
// PasswordAuthenticator.
type ClerkProvider struct{}

var _ Provider = (*ClerkProvider)(nil)

// NewClerkProvider sets the Clerk secret key used by every SDK call.
func NewClerkProvider(secretKey string) *ClerkProvider {
	clerk.SetKey(secretKey)
	return &ClerkProvider{}
}

func (p *ClerkProvider) Name() string { return config.AuthProviderClerk }

// VerifyCredential validates a Clerk session JWT. The signing key is fetched
// from the instance JWKS.
func (p *ClerkProvider) VerifyCredential(ctx context.Context, token string) (*Subject, error) {
	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	subject := &Subject{UID: claims.Subject}
	if claims.Expiry != nil {
		subject.ExpiresAt = time.Unix(*claims.Expiry, 0)
	}

	// Session tokens carry no email, look the user up for it.
	if u, err := user.Get(ctx, claims.Subject); err == nil {
		subject.Email, subject.EmailVerified = primaryEmail(u)
	}

	return subject, nil
}

func (p *ClerkProvider) CreateAccount(ctx context.Context, req NewAccount) (*model.User, error) {
	displayName := req.DisplayName
	if displayName == "" {
		displayName = DefaultDisplayName(req.Email)
	}

	u, err := user.Create(ctx, &user.CreateParams{
		EmailAddresses: &[]string{req.Email},
		Password:       clerk.String(req.Password),
		FirstName:      clerk.String(displayName),
	})
	if err != nil {
		return nil, mapClerkError(err)
	}
	return clerkUser(u), nil
}

func (p *ClerkProvider) GetAccount(ctx context.Context, uid string) (*model.User, error) {
	u, err := user.Get(ctx, uid)
	if err != nil {
		return nil, mapClerkError(err)
	}
	return clerkUser(u), nil
}

func (p *ClerkProvider) UpdateAccount(ctx context.Context, uid string, update AccountUpdate) (*model.User, error) {
	if update.DisplayName != nil {
		if _, err := user.Update(ctx, uid, &user.UpdateParams{FirstName: update.DisplayName}); err != nil {
			return nil, mapClerkError(err)
		}
	}

	if update.PhotoURL != nil {
		metadata, err := json.Marshal(map[string]string{"photoURL": *update.PhotoURL})
		if err != nil {
			return nil, err
		}
		raw := json.RawMessage(metadata)
		if _, err := user.UpdateMetadata(ctx, uid, &user.UpdateMetadataParams{PublicMetadata: &raw}); err != nil {
			return nil, mapClerkError(err)
		}
	}

	return p.GetAccount(ctx, uid)
}

func (p *ClerkProvider) DeleteAccount(ctx context.Context, uid string) error {
	if _, err := user.Delete(ctx, uid); err != nil {
		return mapClerkError(err)
	}
	return nil
}

// mapClerkError translates Clerk API failures into the package sentinels.
func mapClerkError(err error) error {
	var apiErr *clerk.APIErrorResponse
	if !errors.As(err, &apiErr) {
		return err
	}

	for _, e := range apiErr.Errors {
		if e.Code == clerkEmailTaken {
			return ErrEmailExists
		}
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusNotFound:
		return ErrAccountNotFound
	case http.StatusUnauthorized:
		return ErrInvalidToken
	}
	return err
}

func primaryEmail(u *clerk.User) (string, bool) {
	var fallback *clerk.EmailAddress
	for _, e := range u.EmailAddresses {
		if e == nil {
			continue
		}
		if fallback == nil {
			fallback = e
		}
		if u.PrimaryEmailAddressID != nil && e.ID == *u.PrimaryEmailAddressID {
			fallback = e
			break
		}
	}
	if fallback == nil {
		return "", false
	}
	verified := fallback.Verification != nil && fallback.Verification.Status == "verified"
	return fallback.EmailAddress, verified
}

func clerkUser(u *clerk.User) *model.User {
	email, verified := primaryEmail(u)

	out := &model.User{
		UID:           u.ID,
		Email:         email,
		EmailVerified: verified,
		CreatedAt:     time.UnixMilli(u.CreatedAt).UTC(),
	}
	if u.FirstName != nil {
		out.DisplayName = *u.FirstName
	}

	var metadata struct {
		PhotoURL string `json:"photoURL"`
	}
	if len(u.PublicMetadata) > 0 && json.Unmarshal(u.PublicMetadata, &metadata) == nil && metadata.PhotoURL != "" {
		out.PhotoURL = metadata.PhotoURL
	} else if u.ImageURL != nil {
		out.PhotoURL = *u.ImageURL
	}

	return out
}
