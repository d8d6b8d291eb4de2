package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error bodies are always {"error": message}; code and details are added when present.

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": message})
}

func RespondErrorCode(ctx *gin.Context, status int, code, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	body := gin.H{"error": message}
	if details != nil {
		body["details"] = details
	}
	ctx.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}
