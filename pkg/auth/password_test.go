package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPasswordAndCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "s3cret-pass" {
		t.Fatalf("expected opaque hash, got %q", hash)
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
	if CheckPassword("s3cret-pass", "") {
		t.Fatalf("expected empty stored hash to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	for _, pw := range []string{"pw123", "a", "longenough"} {
		if err := ValidatePassword(pw); err != nil {
			t.Fatalf("expected %q to be accepted, got: %v", pw, err)
		}
	}
	if err := ValidatePassword(""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected empty password to fail, got: %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected long password to fail, got: %v", err)
	}
}
