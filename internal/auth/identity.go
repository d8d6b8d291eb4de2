package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrMissingBearer  = fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	ErrInvalidSession = fmt.Errorf("%w: invalid session", ErrUnauthenticated)
)

// Identity is what an identity service vouches for. Email is optional.
type Identity struct {
	ID    string
	Email string
}

// TokenVerifier turns a raw bearer token into an Identity. Implementations talk to the
// identity service; they never touch local state.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
}

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", ErrMissingBearer
	}

	token := strings.TrimSpace(raw)
	if token == "" {
		return "", ErrMissingBearer
	}

	return token, nil
}

type Authenticator struct {
	verifier TokenVerifier
	timeout  time.Duration
}

func NewAuthenticator(verifier TokenVerifier, timeout time.Duration) *Authenticator {
	return &Authenticator{verifier: verifier, timeout: timeout}
}

// Authenticate validates the Authorization header. A malformed header fails with
// ErrMissingBearer before the verifier is called; every verifier failure, timeout
// included, becomes ErrInvalidSession.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Identity, error) {
	token, err := ParseBearer(header)
	if err != nil {
		return Identity{}, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	id, err := a.verifier.VerifyToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	id.ID = strings.TrimSpace(id.ID)
	if id.ID == "" {
		return Identity{}, ErrInvalidSession
	}

	return id, nil
}
