package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret12")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if hash == "secret12" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if !VerifyPassword(hash, "secret12") {
		t.Fatalf("expected password to verify")
	}

	if VerifyPassword(hash, "secret13") {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if a == b {
		t.Fatalf("expected two hashes of the same password to differ")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{"", "not-a-bcrypt-hash", "$2a$10$short"} {
		if VerifyPassword(hash, "anything") {
			t.Fatalf("malformed hash %q must not verify", hash)
		}
	}
}

func TestCheckPassword_MismatchSentinel(t *testing.T) {
	hash, err := HashPassword("secret12")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if err := CheckPassword(hash, "nope"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := CheckPassword("garbage", "nope"); err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("malformed hash should report a bcrypt error, got %v", err)
	}
}

func TestHashPassword_RejectsOverlongInput(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", 73)); err == nil {
		t.Fatalf("expected an error for a password longer than 72 bytes")
	}
}

func TestBurnCompare_DoesNotPanic(t *testing.T) {
	BurnCompare("anything")
	BurnCompare("")
}
