package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contentgate/internal/config"
	"github.com/geocoder89/contentgate/internal/domain/waitlist"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type WaitlistJoiner interface {
	Join(ctx context.Context, e waitlist.Entry) error
}

type WaitlistHandler struct {
	repo     WaitlistJoiner
	validate *validator.Validate
	timeout  time.Duration
}

func NewWaitlistHandler(repo WaitlistJoiner) *WaitlistHandler {
	return &WaitlistHandler{
		repo:     repo,
		validate: validator.New(),
		timeout:  3 * time.Second,
	}
}

// Join handles POST /api/waitlist with a JSON or form-encoded body.
func (h *WaitlistHandler) Join(ctx *gin.Context) {
	// an empty body binds to the zero request and fails the email check below
	var req waitlist.JoinRequest
	if !Bind(ctx, &req) {
		return
	}

	email, role := req.Normalize()
	if email == "" {
		RespondError(ctx, http.StatusBadRequest, "Email required")
		return
	}
	if err := h.validate.Var(email, "email"); err != nil {
		RespondError(ctx, http.StatusBadRequest, "Invalid email")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	err := h.repo.Join(cctx, waitlist.NewEntry(email, role))
	if err != nil && !errors.Is(err, waitlist.ErrAlreadyJoined) {
		slog.Default().ErrorContext(ctx.Request.Context(), "waitlist_join_failed", "err", err)
		RespondInternal(ctx, "Server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
