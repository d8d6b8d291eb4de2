package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// NoMethod answers 405 for a known path requested with a method it does not serve.
// Allow lists the methods registered for that path; messages overrides the error text per path.
func NoMethod(routes func() gin.RoutesInfo, messages map[string]string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Request.URL.Path

		ctx.Header("Allow", strings.Join(allowedMethods(routes(), path), ", "))

		msg, ok := messages[path]
		if !ok {
			msg = "Method not allowed"
		}
		RespondError(ctx, http.StatusMethodNotAllowed, msg)
	}
}

func allowedMethods(routes gin.RoutesInfo, path string) []string {
	methods := make([]string, 0, 2)
	for _, rt := range routes {
		if rt.Path == path {
			methods = append(methods, rt.Method)
		}
	}
	sort.Strings(methods)
	return methods
}

// NotFound keeps unmatched routes on the {"error": message} shape.
func NotFound(ctx *gin.Context) {
	RespondError(ctx, http.StatusNotFound, "Not found")
}
