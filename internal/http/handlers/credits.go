package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contentgate/internal/config"
	"github.com/geocoder89/contentgate/internal/credits"
	"github.com/geocoder89/contentgate/internal/domain/account"
	"github.com/geocoder89/contentgate/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// CreditGate is the part of credits.Gate the handlers need.
type CreditGate interface {
	Consume(ctx context.Context, userID, email string) (account.Profile, error)
	Balance(ctx context.Context, userID, email string) (account.Profile, error)
}

type CreditsHandler struct {
	gate    CreditGate
	timeout time.Duration
}

func NewCreditsHandler(gate CreditGate) *CreditsHandler {
	return &CreditsHandler{gate: gate, timeout: 3 * time.Second}
}

// UseCredit handles POST /api/credits/use. Requires RequireAuth upstream.
func (h *CreditsHandler) UseCredit(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondError(ctx, http.StatusUnauthorized, "Invalid session")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	profile, err := h.gate.Consume(cctx, userID, middlewares.EmailFromContext(ctx))
	if err != nil {
		respondConsumeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "profile": profile})
}

// GetCredits handles GET /api/credits.
func (h *CreditsHandler) GetCredits(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondError(ctx, http.StatusUnauthorized, "Invalid session")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	profile, err := h.gate.Balance(cctx, userID, middlewares.EmailFromContext(ctx))
	if err != nil {
		RespondInternal(ctx, "Server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"profile": profile})
}

// RequireCredit consumes one credit before the wrapped handler runs.
func (h *CreditsHandler) RequireCredit() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := middlewares.UserIDFromContext(ctx)
		if !ok || userID == "" {
			RespondError(ctx, http.StatusUnauthorized, "Invalid session")
			return
		}

		cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
		defer cancel()

		if _, err := h.gate.Consume(cctx, userID, middlewares.EmailFromContext(ctx)); err != nil {
			respondConsumeError(ctx, err)
			return
		}

		ctx.Next()
	}
}

func respondConsumeError(ctx *gin.Context, err error) {
	if errors.Is(err, credits.ErrNoCredits) {
		RespondErrorCode(ctx, http.StatusPaymentRequired, "NO_CREDITS", "No credits")
		return
	}

	// details stay in the logs
	slog.Default().ErrorContext(ctx.Request.Context(), "credits_request_failed", "err", err)
	RespondInternal(ctx, "Server error")
}
