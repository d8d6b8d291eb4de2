package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeVerifier struct {
	calls    int
	identity Identity
	err      error
	block    bool
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return Identity{}, ctx.Err()
	}
	return f.identity, f.err
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"surrounding spaces", "Bearer   tok  ", "tok", false},
		{"empty header", "", "", true},
		{"prefix only", "Bearer ", "", true},
		{"lowercase scheme", "bearer tok", "", true},
		{"basic scheme", "Basic dXNlcjpwYXNz", "", true},
		{"no space", "Bearertok", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBearer(tc.header)
			if tc.wantErr {
				if !errors.Is(err, ErrMissingBearer) {
					t.Fatalf("expected ErrMissingBearer, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("token: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestAuthenticate_MalformedHeaderSkipsVerifier(t *testing.T) {
	fv := &fakeVerifier{identity: Identity{ID: "u1"}}
	a := NewAuthenticator(fv, time.Second)

	for _, header := range []string{"", "Token x", "Bearer "} {
		_, err := a.Authenticate(context.Background(), header)
		if !errors.Is(err, ErrUnauthenticated) || !errors.Is(err, ErrMissingBearer) {
			t.Fatalf("header %q: expected missing bearer, got %v", header, err)
		}
	}

	if fv.calls != 0 {
		t.Fatalf("verifier should not be called, got %d calls", fv.calls)
	}
}

func TestAuthenticate_VerifierErrorIsInvalidSession(t *testing.T) {
	cause := errors.New("upstream said no")
	a := NewAuthenticator(&fakeVerifier{err: cause}, time.Second)

	_, err := a.Authenticate(context.Background(), "Bearer tok")
	if !errors.Is(err, ErrInvalidSession) || !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected invalid session, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be preserved, got %v", err)
	}
}

func TestAuthenticate_EmptyIdentityIsInvalidSession(t *testing.T) {
	a := NewAuthenticator(&fakeVerifier{identity: Identity{ID: "  ", Email: "x@example.com"}}, time.Second)

	_, err := a.Authenticate(context.Background(), "Bearer tok")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid session, got %v", err)
	}
}

func TestAuthenticate_TimeoutIsInvalidSession(t *testing.T) {
	a := NewAuthenticator(&fakeVerifier{block: true}, 20*time.Millisecond)

	_, err := a.Authenticate(context.Background(), "Bearer tok")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid session, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded cause, got %v", err)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	fv := &fakeVerifier{identity: Identity{ID: "u1", Email: "u1@example.com"}}
	a := NewAuthenticator(fv, 0)

	id, err := a.Authenticate(context.Background(), "Bearer tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != "u1" || id.Email != "u1@example.com" {
		t.Fatalf("identity mismatch: %+v", id)
	}
	if fv.calls != 1 {
		t.Fatalf("expected one verifier call, got %d", fv.calls)
	}
}
