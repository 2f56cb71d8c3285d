package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/contacts/internal/domain/contact"
	"github.com/geocoder89/contacts/internal/domain/user"
	"github.com/geocoder89/contacts/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondInvalidID(ctx *gin.Context) {
	RespondError(ctx, http.StatusBadRequest, "invalid_id", "Invalid id", nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusForbidden, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// respondStoreError translates a store failure into the public error taxonomy.
// Nothing from the storage engine reaches the response body.
func respondStoreError(ctx *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, contact.ErrNotFound), errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, notFoundMsg)
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email in use")
	case errors.Is(err, contact.ErrPhoneTaken):
		RespondConflict(ctx, "phone_taken", "Phone number already belongs to a contact")
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "store operation failed",
			"route", ctx.FullPath(),
			"err", err,
		)
		RespondError(ctx, http.StatusBadRequest, "store_error", "Request could not be completed", nil)
	}
}
