package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireContentType rejects writes whose media type is not one of allowed.
func RequireContentType(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || !mediaTypeAllowed(mediaType, allowed) {
				abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
					"Content-Type must be "+strings.Join(allowed, " or "))
				return
			}
		}
		c.Next()
	}
}

func RequireJSON() gin.HandlerFunc {
	return RequireContentType("application/json")
}

func mediaTypeAllowed(mediaType string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(mediaType, a) {
			return true
		}
	}
	return false
}
