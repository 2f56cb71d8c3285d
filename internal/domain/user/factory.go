package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// New builds an unverified user record with the starter tier unless told otherwise.
func New(nu NewUser) User {
	now := time.Now().UTC()

	sub := nu.Subscription
	if sub == "" {
		sub = SubscriptionStarter
	}

	return User{
		ID:                uuid.NewString(),
		Email:             nu.Email,
		PasswordHash:      nu.PasswordHash,
		Subscription:      sub,
		Verified:          false,
		VerificationToken: nu.VerificationToken,
		AvatarURL:         nu.AvatarURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
