package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// GravatarURL returns the protocol-relative default avatar for email.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}
