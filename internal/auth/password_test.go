package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("recycle-me-123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "recycle-me-123" {
		t.Fatal("hash must not equal the plain password")
	}
	if err := CheckPassword(hash, "recycle-me-123"); err != nil {
		t.Errorf("CheckPassword(correct): %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("CheckPassword(wrong): want ErrPasswordMismatch, got %v", err)
	}

	again, _ := HashPassword("recycle-me-123")
	if again == hash {
		t.Error("two hashes of the same password should differ (salt)")
	}
}
