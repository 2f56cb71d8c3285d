package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword hashes plain with bcrypt at the default cost; each call uses a fresh salt.
// bcrypt only reads 72 bytes, and longer inputs are refused rather than silently truncated.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns ErrPasswordMismatch for a wrong password and the
// bcrypt error for a hash it cannot read.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// VerifyPassword reports whether plain matches hash. A malformed hash is a mismatch.
func VerifyPassword(hash, plain string) bool {
	return CheckPassword(hash, plain) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare spends the same time as a real comparison. Login calls it for
// unknown emails so response timing does not reveal which accounts exist.
func BurnCompare(plain string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("contacts-timing-guard"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
