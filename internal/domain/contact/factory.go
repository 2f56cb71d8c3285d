package contact

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest binds the new contact to owner for its whole lifetime.
func NewFromCreateRequest(owner string, req CreateContactRequest) Contact {
	now := time.Now().UTC()

	favorite := false
	if req.Favorite != nil {
		favorite = *req.Favorite
	}

	return Contact{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Favorite:  favorite,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
