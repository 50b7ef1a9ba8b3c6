package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "calcapi:denylist:"

// Denylist remembers logged-out tokens in Redis until they would have expired.
//
// Tokens are stored as SHA-256 digests, never verbatim. A nil *Denylist is
// valid and denies nothing.
type Denylist struct {
	client *redis.Client
}

// NewDenylist returns nil when client is nil.
func NewDenylist(client *redis.Client) *Denylist {
	if client == nil {
		return nil
	}
	return &Denylist{client: client}
}

func denylistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return denylistPrefix + hex.EncodeToString(sum[:])
}

// Revoke denies token until expiresAt. Already expired tokens are ignored.
func (d *Denylist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if d == nil {
		return nil
	}

	ttl := time.Until(expiresAt)
	if expiresAt.IsZero() {
		ttl = 24 * time.Hour
	}
	if ttl <= 0 {
		return nil
	}

	return d.client.Set(ctx, denylistKey(token), 1, ttl).Err()
}

// IsRevoked reports whether token was revoked.
func (d *Denylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if d == nil {
		return false, nil
	}

	err := d.client.Get(ctx, denylistKey(token)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
