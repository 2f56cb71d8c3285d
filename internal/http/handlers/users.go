package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contacts/internal/auth"
	"github.com/geocoder89/contacts/internal/avatar"
	"github.com/geocoder89/contacts/internal/domain/user"
	"github.com/geocoder89/contacts/internal/http/middlewares"
	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/geocoder89/contacts/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	SetToken(ctx context.Context, id, token string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateSubscription(ctx context.Context, id string, sub user.Subscription) (user.User, error)
	MarkVerified(ctx context.Context, token string) (user.User, error)
}

type SessionIssuer interface {
	IssueSession(userID string) (string, error)
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

type AvatarStore interface {
	Stage(src io.Reader, filename string) (string, error)
	Place(tmpPath, userID, originalName string) (avatar.Placed, error)
	Discard(path string)
}

type UsersHandler struct {
	users          UsersStore
	sessions       SessionIssuer
	queue          JobEnqueuer
	avatars        AvatarStore
	prom           *observability.Prom
	log            *slog.Logger
	maxUploadBytes int64
}

type UsersHandlerDeps struct {
	Users          UsersStore
	Sessions       SessionIssuer
	Queue          JobEnqueuer
	Avatars        AvatarStore
	Prom           *observability.Prom
	Log            *slog.Logger
	MaxUploadBytes int64
}

func NewUsersHandler(d UsersHandlerDeps) *UsersHandler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	return &UsersHandler{
		users:          d.Users,
		sessions:       d.Sessions,
		queue:          d.Queue,
		avatars:        d.Avatars,
		prom:           d.Prom,
		log:            log,
		maxUploadBytes: d.MaxUploadBytes,
	}
}

func (h *UsersHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	email := user.NormalizeEmail(req.Email)
	verificationToken := auth.NewVerificationToken()

	u, err := h.users.Create(cctx, user.NewUser{
		Email:             email,
		PasswordHash:      hash,
		Subscription:      req.Subscription,
		VerificationToken: verificationToken,
		AvatarURL:         avatar.GravatarURL(email),
	})
	if err != nil {
		respondStoreError(ctx, err, "Not found")
		return
	}

	// the account exists either way; a lost email is recovered through resend
	if err := h.enqueueVerification(cctx, u.Email, verificationToken); err != nil {
		h.log.WarnContext(cctx, "verification email not queued", "user_id", u.ID, "err", err)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user": u.Summary(),
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(req.Password)
			h.prom.IncAuthRejection("bad_credentials")
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is wrong")
			return
		}
		respondStoreError(ctx, err, "Not found")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		h.prom.IncAuthRejection("bad_credentials")
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is wrong")
		return
	}

	if !found.Verified {
		h.prom.IncAuthRejection("unverified")
		RespondForbidden(ctx, "email_not_verified", "Email not verified")
		return
	}

	token, err := h.sessions.IssueSession(found.ID)
	if err != nil {
		RespondInternal(ctx, "Could not generate session token")
		return
	}

	// persisting the token is what makes it the single live session
	if err := h.users.SetToken(cctx, found.ID, token); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
			return
		}
		respondStoreError(ctx, err, "Not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"email":        found.Email,
			"subscription": found.Subscription,
		},
	})
}

func (h *UsersHandler) Logout(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.SetToken(cctx, u.ID, ""); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
			return
		}
		respondStoreError(ctx, err, "Not found")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) Current(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email":        u.Email,
		"subscription": u.Subscription,
	})
}

func (h *UsersHandler) UpdateSubscription(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return
	}

	var req user.UpdateSubscriptionRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	updated, err := h.users.UpdateSubscription(cctx, u.ID, req.Subscription)
	if err != nil {
		respondStoreError(ctx, err, "Not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email":        updated.Email,
		"subscription": updated.Subscription,
	})
}

func (h *UsersHandler) UpdateAvatar(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return
	}

	fh, err := ctx.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Avatar file too large", nil)
			return
		}
		RespondBadRequest(ctx, "Avatar file is required", gin.H{"field": "avatar"})
		return
	}

	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Avatar file too large", nil)
		return
	}

	if !avatar.AllowedFile(fh.Filename) {
		RespondBadRequest(ctx, "Avatar must be a jpg, jpeg, png or gif image", gin.H{"field": "avatar"})
		return
	}

	src, err := fh.Open()
	if err != nil {
		RespondInternal(ctx, "Could not read avatar")
		return
	}
	defer src.Close()

	tmpPath, err := h.avatars.Stage(src, fh.Filename)
	if err != nil {
		RespondInternal(ctx, "Could not save avatar")
		return
	}

	placed, err := h.avatars.Place(tmpPath, u.ID, fh.Filename)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "avatar move failed", "err", err)
		RespondInternal(ctx, "Could not save avatar")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.UpdateAvatar(cctx, u.ID, placed.URL); err != nil {
		h.avatars.Discard(placed.Path)
		respondStoreError(ctx, err, "Not found")
		return
	}

	// resizing is best effort and must never fail the upload
	if err := h.enqueue(cctx, jobs.JobResizeAvatar, jobs.ResizeAvatarPayload{UserID: u.ID, Path: placed.Path}); err != nil {
		h.log.WarnContext(cctx, "avatar resize not queued", "err", err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"avatarURL": placed.URL,
	})
}

// Verify consumes a verification token. A token that was already used is not found.
func (h *UsersHandler) Verify(ctx *gin.Context) {
	token := ctx.Param("token")
	if token == "" {
		RespondNotFound(ctx, "Not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.users.MarkVerified(cctx, token); err != nil {
		respondStoreError(ctx, err, "Not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Verification successful",
	})
}

func (h *UsersHandler) ResendVerification(ctx *gin.Context) {
	var req user.ResendVerificationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		respondStoreError(ctx, err, "Not found")
		return
	}

	if u.Verified {
		RespondBadRequest(ctx, "Verification has already been passed", nil)
		return
	}

	if err := h.enqueueVerification(cctx, u.Email, u.VerificationToken); err != nil {
		h.log.ErrorContext(cctx, "verification email not queued", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "Could not send verification email")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Verification email sent",
	})
}

func (h *UsersHandler) enqueueVerification(ctx context.Context, email, token string) error {
	return h.enqueue(ctx, jobs.JobSendVerificationEmail, jobs.SendVerificationEmailPayload{
		Email:             email,
		VerificationToken: token,
	})
}

func (h *UsersHandler) enqueue(ctx context.Context, t jobs.JobType, payload any) error {
	j, err := jobs.New(t, payload)
	if err == nil {
		err = h.queue.Enqueue(ctx, j)
	}
	h.prom.IncEnqueued(string(t), err)

	return err
}
