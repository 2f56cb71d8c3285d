package middlewares

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/contacts/internal/actorctx"
	"github.com/geocoder89/contacts/internal/auth"
	"github.com/geocoder89/contacts/internal/domain/user"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	ValidateSession(token string) (string, error)
}

type SessionUsers interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users SessionUsers
	prom  *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, users SessionUsers, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, prom: prom}
}

// RequireAuth is the session gate. A correctly signed token is not enough:
// it must also equal the token currently stored on the user, so logout revokes it.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.reject(c, "missing_header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			m.reject(c, "missing_header")
			return
		}

		userID, err := m.jwt.ValidateSession(raw)
		if err != nil {
			reason := "bad_signature"
			if errors.Is(err, auth.ErrMalformed) {
				reason = "malformed"
			}
			m.reject(c, reason)
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.reject(c, "user_not_found")
				return
			}
			m.reject(c, "store_error")
			return
		}

		if u.Token == "" || subtle.ConstantTimeCompare([]byte(u.Token), []byte(raw)) != 1 {
			m.reject(c, "token_mismatch")
			return
		}

		if !u.Verified {
			m.prom.IncAuthRejection("unverified")
			abortWithError(c, http.StatusForbidden, "email_not_verified", "Email not verified")
			return
		}

		// Stash the identity for handlers and the request logger
		c.Set(CtxUserID, u.ID)
		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	m.prom.IncAuthRejection(reason)
	abortWithError(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
