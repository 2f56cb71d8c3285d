package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/contacts/internal/domain/contact"
	"github.com/geocoder89/contacts/internal/http/middlewares"
	"github.com/geocoder89/contacts/internal/utils"
	"github.com/gin-gonic/gin"
)

// ContactsStore scopes every call by owner; a record owned by someone else is not found.
type ContactsStore interface {
	Create(ctx context.Context, owner string, req contact.CreateContactRequest) (contact.Contact, error)
	List(ctx context.Context, owner string, filter contact.ListFilter) ([]contact.Contact, int, error)
	GetByID(ctx context.Context, owner, id string) (contact.Contact, error)
	Update(ctx context.Context, owner, id string, req contact.UpdateContactRequest) (contact.Contact, error)
	UpdateFavorite(ctx context.Context, owner, id string, favorite bool) (contact.Contact, error)
	Delete(ctx context.Context, owner, id string) (contact.Contact, error)
}

type ContactsHandler struct {
	repo ContactsStore
}

func NewContactsHandler(repo ContactsStore) *ContactsHandler {
	return &ContactsHandler{repo: repo}
}

const contactNotFound = "Contact not found"

func (h *ContactsHandler) ListContacts(ctx *gin.Context) {
	owner, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return
	}

	page, err := utils.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	favorite, err := utils.ParseFavorite(ctx.Query("favorite"))
	if err != nil {
		RespondBadRequest(ctx, err.Error(), gin.H{"field": "favorite"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, owner, contact.ListFilter{
		Favorite: favorite,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	})
	if err != nil {
		respondStoreError(ctx, err, contactNotFound)
		return
	}

	if items == nil {
		items = []contact.Contact{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
		"total": total,
		"page":  page.Page,
		"limit": page.Limit,
	})
}

func (h *ContactsHandler) GetContactByID(ctx *gin.Context) {
	owner, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.repo.GetByID(cctx, owner, id)
	if err != nil {
		respondStoreError(ctx, err, contactNotFound)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

func (h *ContactsHandler) CreateContact(ctx *gin.Context) {
	owner, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return
	}

	var req contact.CreateContactRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, owner, req)
	if err != nil {
		respondStoreError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *ContactsHandler) UpdateContact(ctx *gin.Context) {
	owner, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	var req contact.UpdateContactRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Update(cctx, owner, id, req)
	if err != nil {
		respondStoreError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) UpdateFavorite(ctx *gin.Context) {
	owner, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	var req contact.UpdateFavoriteRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.repo.UpdateFavorite(cctx, owner, id, *req.Favorite)
	if err != nil {
		respondStoreError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ContactsHandler) DeleteContact(ctx *gin.Context) {
	owner, id, ok := ownerAndID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.repo.Delete(cctx, owner, id)
	if err != nil {
		respondStoreError(ctx, err, contactNotFound)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func ownerAndID(ctx *gin.Context) (string, string, bool) {
	owner, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized")
		return "", "", false
	}

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondInvalidID(ctx)
		return "", "", false
	}

	return owner, id, true
}
