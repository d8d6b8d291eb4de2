package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/contentgate/internal/observability"
)

var ErrCircuitOpen = errors.New("generation circuit breaker open")

// Generator is anything that can produce content for a Request.
type Generator interface {
	Generate(ctx context.Context, r Request) (Result, error)
}

type ProtectedConfig struct {
	Timeout          time.Duration // hard timeout per call
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

type circuitState string

const (
	stateClosed   circuitState = "closed"
	stateOpen     circuitState = "open"
	stateHalfOpen circuitState = "half_open"
)

// ProtectedGenerator bounds every upstream call and stops calling an upstream that keeps failing.
type ProtectedGenerator struct {
	inner Generator
	cfg   ProtectedConfig
	prom  *observability.Prom
	now   func() time.Time

	mu                  sync.Mutex
	state               circuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedGenerator(inner Generator, cfg ProtectedConfig, prom *observability.Prom) *ProtectedGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedGenerator{
		inner: inner,
		cfg:   cfg,
		prom:  prom,
		now:   time.Now,
		state: stateClosed,
	}
}

func (g *ProtectedGenerator) Generate(ctx context.Context, r Request) (Result, error) {
	if !g.allowRequest() {
		g.prom.ObserveGeneration("circuit_open", 0)
		return Result{}, ErrCircuitOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := g.now()
	res, err := g.inner.Generate(callCtx, r)
	g.prom.ObserveGeneration(resultLabel(res, err), g.now().Sub(start))

	g.afterRequest(countsAsFailure(err))

	return res, err
}

// countsAsFailure keeps caller mistakes (4xx other than 429) and missing config from tripping the breaker.
func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}

	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Status >= 500 || up.Status == 429
	}
	return true
}

func resultLabel(res Result, err error) string {
	var up *UpstreamError
	switch {
	case err == nil && res.Output == "":
		return "empty"
	case err == nil:
		return "ok"
	case errors.As(err, &up):
		return "upstream_error"
	default:
		return "error"
	}
}

func (g *ProtectedGenerator) allowRequest() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case stateClosed:
		return true
	case stateOpen:
		// cooldown has passed? move to half open
		if g.now().Sub(g.openedAt) >= g.cfg.Cooldown {
			g.state = stateHalfOpen
			g.halfOpenInFlight = 1
			return true
		}
		return false
	case stateHalfOpen:
		if g.halfOpenInFlight >= g.cfg.HalfOpenMaxCalls {
			return false
		}
		g.halfOpenInFlight++
		return true
	default:
		return true
	}
}

func (g *ProtectedGenerator) afterRequest(failed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == stateHalfOpen && g.halfOpenInFlight > 0 {
		g.halfOpenInFlight--
	}

	if !failed {
		g.consecutiveFailures = 0
		g.state = stateClosed
		return
	}

	g.consecutiveFailures++

	// a failed trial call reopens immediately
	if g.state == stateHalfOpen {
		g.state = stateOpen
		g.openedAt = g.now()
		return
	}

	if g.consecutiveFailures >= g.cfg.FailureThreshold {
		g.state = stateOpen
		g.openedAt = g.now()
	}
}

// State reports the breaker state; exposed for readiness and tests.
func (g *ProtectedGenerator) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return string(g.state)
}
