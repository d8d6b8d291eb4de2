package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	supabaseauth "github.com/supabase-community/auth-go"
)

// SupabaseVerifier asks the Supabase Auth server who owns a token (GET /auth/v1/user).
type SupabaseVerifier struct {
	client supabaseauth.Client
}

// NewSupabaseVerifier takes the project URL (https://<ref>.supabase.co) and the anon key.
func NewSupabaseVerifier(baseURL, anonKey string, httpClient *http.Client) *SupabaseVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	client := supabaseauth.New("", anonKey).
		WithCustomAuthURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithClient(*httpClient)

	return &SupabaseVerifier{client: client}
}

type userResult struct {
	id  Identity
	err error
}

func (v *SupabaseVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	// the SDK call takes no context; the http client timeout bounds the goroutine
	done := make(chan userResult, 1)
	go func() {
		resp, err := v.client.WithToken(token).GetUser()
		if err != nil {
			done <- userResult{err: fmt.Errorf("supabase get user: %w", err)}
			return
		}
		if resp == nil || resp.ID == uuid.Nil {
			done <- userResult{err: errors.New("supabase get user: no user id")}
			return
		}
		done <- userResult{id: Identity{ID: resp.ID.String(), Email: resp.Email}}
	}()

	select {
	case res := <-done:
		return res.id, res.err
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}
