package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf)

	ctx := WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "hello", "k", "v")
	log.DebugContext(ctx, "dropped at info level")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if rec["request_id"] != "req-42" {
		t.Fatalf("request_id missing: %v", rec)
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("trace_id should be absent without a span: %v", rec)
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40001"}), "serialization_failure"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tc := range tests {
		if got := classifyDBErr(tc.err); got != tc.want {
			t.Fatalf("classifyDBErr(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestProm_Counters(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveConsume("ok")
	p.ObserveConsume("ok")
	p.ObserveConsume("no_credits")
	p.ObserveGeneration("ok", 150*time.Millisecond)

	if got := testutil.ToFloat64(p.CreditsConsumeTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok count = %v, want 2", got)
	}

	_ = p.ObserveDB("profiles.find", func() error { return errors.New("boom") })
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("profiles.find", "unknown")); got != 1 {
		t.Fatalf("db errors = %v, want 1", got)
	}

	// nil receiver is a no-op
	var nilProm *Prom
	nilProm.ObserveConsume("ok")
	nilProm.IncRateLimited("/api/generate")
}
