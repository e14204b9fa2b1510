package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for new digests. Noticeably slower than
// the library default, which is the point for a login endpoint.
const bcryptCost = 12

// hashPassword creates a bcrypt digest of the given password. The salt is
// embedded in the digest, so verification needs no separate salt storage.
func hashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// verifyPassword checks a plaintext password against a bcrypt digest.
// bcrypt's comparison is constant-time over the derived key.
func verifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
