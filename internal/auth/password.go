package auth

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the bcrypt work factor for stored passwords
	BcryptCost = 12

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 8
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword returns nil when password matches hash.
func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
