package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/geocoder89/contentgate/internal/cache"
)

// CachingVerifier remembers successful verifications for a short TTL. Failures are never cached.
type CachingVerifier struct {
	next  TokenVerifier
	cache *cache.Cache[Identity]
}

func NewCachingVerifier(next TokenVerifier, ttl time.Duration) *CachingVerifier {
	return &CachingVerifier{next: next, cache: cache.New[Identity](ttl)}
}

func (v *CachingVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	sum := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(sum[:])

	if id, ok := v.cache.Get(key); ok {
		return id, nil
	}

	id, err := v.next.VerifyToken(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	v.cache.Set(key, id, time.Time{})
	if v.cache.Len() > 10000 {
		v.cache.Sweep()
	}
	return id, nil
}
