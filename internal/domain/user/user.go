package user

import (
	"errors"
	"time"
)

type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

func (s Subscription) IsValid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID                string       `json:"id"`
	Email             string       `json:"email"`
	PasswordHash      string       `json:"-"` // never expose hash in JSON
	Subscription      Subscription `json:"subscription"`
	Token             string       `json:"-"` // empty when logged out
	Verified          bool         `json:"verify"`
	VerificationToken string       `json:"-"`
	AvatarURL         string       `json:"avatarURL"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// NewUser is everything the signup flow decides before the record exists.
type NewUser struct {
	Email             string
	PasswordHash      string
	Subscription      Subscription
	VerificationToken string
	AvatarURL         string
}

type SignUpRequest struct {
	Email        string       `json:"email" binding:"required,email,max=254"`
	Password     string       `json:"password" binding:"required,min=7,max=20"`
	Subscription Subscription `json:"subscription" binding:"omitempty,oneof=starter pro business"`
}

// LoginRequest only checks presence; a malformed address is just an unknown login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdateSubscriptionRequest struct {
	Subscription Subscription `json:"subscription" binding:"required,oneof=starter pro business"`
}

// Summary is the public projection returned by the users endpoints.
type Summary struct {
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
	AvatarURL    string       `json:"avatarURL,omitempty"`
}

func (u User) Summary() Summary {
	return Summary{Email: u.Email, Subscription: u.Subscription, AvatarURL: u.AvatarURL}
}
