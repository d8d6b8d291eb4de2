package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency readiness depends on (pgxpool.Pool, redisclient.Client).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks         map[string]Pinger
	isShuttingDown func() bool
}

// NewHealthHandler takes the named dependencies /readyz should ping. Nil entries are skipped.
// isShuttingDown may be nil.
func NewHealthHandler(checks map[string]Pinger, isShuttingDown func() bool) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	if isShuttingDown == nil {
		isShuttingDown = func() bool { return false }
	}
	return &HealthHandler{checks: active, isShuttingDown: isShuttingDown}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(gin.H, len(h.checks))

	for name, p := range h.checks {
		if err := p.Ping(cctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "error"
			slog.Default().WarnContext(ctx.Request.Context(), "readiness_check_failed", "check", name, "err", err)
			continue
		}
		results[name] = "ok"
	}

	if status != http.StatusOK {
		ctx.JSON(status, gin.H{"status": "not_ready", "checks": results})
		return
	}
	ctx.JSON(status, gin.H{"status": "ready", "checks": results})
}
