package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type sentRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
}

func TestClient_Generate_MessageContent(t *testing.T) {
	var got sentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"slide 1"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "sk-test", Model: "m1"})
	res, err := c.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Output != "slide 1" {
		t.Fatalf("output = %q", res.Output)
	}
	if got.Model != "m1" || len(got.Messages) != 2 || got.Temperature != 0.7 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Messages[0].Role != "system" || !strings.Contains(got.Messages[1].Content, DefaultTopic) {
		t.Fatalf("user message missing default topic: %q", got.Messages[1].Content)
	}
}

func TestClient_Generate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.Generate(context.Background(), Request{})

	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if up.Status != http.StatusTooManyRequests || up.Body != "rate limited" {
		t.Fatalf("unexpected upstream error: %+v", up)
	}
}

func TestClient_Generate_TextFallbackAndEmpty(t *testing.T) {
	bodies := map[string]string{
		"/text/chat/completions":  `{"choices":[{"text":"legacy"}]}`,
		"/empty/chat/completions": `{"choices":[]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
	defer srv.Close()

	res, err := NewClient(ClientConfig{BaseURL: srv.URL + "/text", APIKey: "k"}).Generate(context.Background(), Request{})
	if err != nil || res.Output != "legacy" {
		t.Fatalf("text fallback: res=%+v err=%v", res, err)
	}

	res, err = NewClient(ClientConfig{BaseURL: srv.URL + "/empty", APIKey: "k"}).Generate(context.Background(), Request{})
	if err != nil || res.Output != "" || !strings.Contains(res.Raw, "choices") {
		t.Fatalf("empty output: res=%+v err=%v", res, err)
	}
}

func TestClient_Generate_NotConfigured(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}).Generate(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if called {
		t.Fatalf("upstream must not be called without a key")
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message content", `{"choices":[{"message":{"content":"a"}}]}`, "a"},
		{"text fallback", `{"choices":[{"text":"b"}]}`, "b"},
		{"content wins over text", `{"choices":[{"message":{"content":"a"},"text":"b"}]}`, "a"},
		{"no choices", `{"choices":[]}`, ""},
		{"not json", `<html>`, ""},
		{"null content", `{"choices":[{"message":{"content":null}}]}`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseOutput([]byte(tc.body)); got != tc.want {
				t.Fatalf("ParseOutput = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := Truncate("hello", 3); got != "hel" {
		t.Fatalf("Truncate = %q", got)
	}
	// "é" is two bytes; cutting in the middle drops it
	if got := Truncate("aé", 2); got != "a" {
		t.Fatalf("Truncate split a rune: %q", got)
	}
}
