package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt is the password digest capability handed to the auth service.
// Cost is clamped to bcrypt's accepted range; zero means
// bcrypt.DefaultCost.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) cost() int {
	switch {
	case b.Cost == 0:
		return bcrypt.DefaultCost
	case b.Cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case b.Cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return b.Cost
}

// Hash digests plain.  bcrypt rejects input longer than 72 bytes.
func (b Bcrypt) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches hash.  A malformed hash never
// matches.
func (b Bcrypt) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
