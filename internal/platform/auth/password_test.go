package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	digest, err := HashPassword("Demo@123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if digest == "Demo@123" {
		t.Fatal("digest must not equal plaintext")
	}

	if !CheckPassword("Demo@123", digest) {
		t.Error("expected correct password to verify")
	}
	if CheckPassword("Demo@124", digest) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestHashPassword_SaltedPerRecord(t *testing.T) {
	d1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d1 == d2 {
		t.Error("expected distinct digests for the same plaintext")
	}
}

func TestCheckPassword_BadDigestReturnsFalse(t *testing.T) {
	if CheckPassword("whatever", "not-a-bcrypt-digest") {
		t.Error("expected malformed digest to fail verification, not panic")
	}
}
