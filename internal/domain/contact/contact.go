package contact

import (
	"errors"
	"time"
)

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("contact not found")
	ErrPhoneTaken = errors.New("phone already in use")
)

// with pointers if optional, it will be nil
type ListFilter struct {
	Favorite *bool
	Limit    int
	Offset   int
}

type CreateContactRequest struct {
	Name     string `json:"name" binding:"required,min=5,max=40"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Phone    string `json:"phone" binding:"required,max=32"`
	Favorite *bool  `json:"favorite"`
}

// a full update payload; favorite is kept as stored when omitted.
type UpdateContactRequest struct {
	Name     string `json:"name" binding:"required,min=5,max=40"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Phone    string `json:"phone" binding:"required,max=32"`
	Favorite *bool  `json:"favorite"`
}

// Favorite is a pointer so that an explicit false passes the required rule.
type UpdateFavoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}
