package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptHasher hashes passwords with bcrypt, which salts every hash.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given work factor.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of password. Passwords over MaxPasswordBytes
// are rejected as invalid input.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether password matches hash. A mismatch is not an error.
func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}
