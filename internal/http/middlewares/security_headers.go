package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// the docs page loads the UI bundle from unpkg and bootstraps it inline
	docsCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")

		switch {
		case strings.HasPrefix(path, "/docs"):
			c.Header("Content-Security-Policy", docsCSP)
		case strings.HasPrefix(path, "/avatars/"):
			// avatar images are embedded by other origins
			c.Header("Content-Security-Policy", apiCSP)
			c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		default:
			c.Header("Content-Security-Policy", apiCSP)
			c.Header("Cross-Origin-Resource-Policy", "same-origin")
		}

		// login and current-user responses carry the session token or account data
		if strings.HasPrefix(path, "/users/") {
			c.Header("Cache-Control", "no-store")
		}

		c.Next()
	}
}
