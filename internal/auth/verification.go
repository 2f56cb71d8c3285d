package auth

import (
	"strings"

	"github.com/google/uuid"
)

// NewVerificationToken returns an unguessable single-use token. It draws from
// crypto/rand through uuid v4 and is unrelated to the signing secret.
func NewVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
