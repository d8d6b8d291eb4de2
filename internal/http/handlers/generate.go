package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/contentgate/internal/generation"
	"github.com/gin-gonic/gin"
)

type Generator interface {
	Generate(ctx context.Context, r generation.Request) (generation.Result, error)
}

type GenerateHandler struct {
	gen Generator
}

func NewGenerateHandler(gen Generator) *GenerateHandler {
	return &GenerateHandler{gen: gen}
}

// Generate handles POST /api/generate. A body that does not parse is treated as {};
// an over-long topic or format is rejected.
func (h *GenerateHandler) Generate(ctx *gin.Context) {
	var req generation.Request
	if !BindJSONOrEmpty(ctx, &req) {
		return
	}

	res, err := h.gen.Generate(ctx.Request.Context(), req)
	if err != nil {
		respondGenerateError(ctx, err)
		return
	}

	if res.Output == "" {
		ctx.JSON(http.StatusOK, gin.H{
			"output": "",
			"error":  "No content in OpenAI response",
			"debug":  generation.Truncate(res.Raw, 600),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"output": res.Output})
}

func respondGenerateError(ctx *gin.Context, err error) {
	var upstream *generation.UpstreamError

	switch {
	case errors.Is(err, generation.ErrNotConfigured):
		RespondInternal(ctx, "Missing OPENAI_API_KEY on server")
	case errors.As(err, &upstream):
		RespondError(ctx, upstream.Status, "OpenAI error: "+generation.Truncate(upstream.Body, 400))
	case errors.Is(err, generation.ErrCircuitOpen):
		ctx.Header("Retry-After", "30")
		RespondError(ctx, http.StatusServiceUnavailable, "Server error: "+err.Error())
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "generate_failed", "err", err)
		RespondInternal(ctx, "Server error: "+err.Error())
	}
}
