package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed cost factor for password hashing. bcrypt embeds a
// per-record salt in the digest, so no separate salt column is needed.
const bcryptCost = bcrypt.DefaultCost

// HashPassword returns a salted one-way digest of the plaintext. A hashing
// failure is fatal to the calling request.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// CheckPassword reports whether the plaintext matches the stored digest.
// A mismatch is not an error condition; it simply returns false.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
