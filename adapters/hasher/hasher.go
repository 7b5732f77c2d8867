// Package hasher provides password hashing implementations.
package hasher

import (
	"github.com/artpar/zacre/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Out of range costs use the default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash generates a bcrypt hash from plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Compare checks if plaintext matches hash.
func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

// Fake stores plaintext. Tests only.
type Fake struct{}

// Hash returns the plaintext bytes.
func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte(plaintext), nil
}

// Compare checks equality.
func (Fake) Compare(hash []byte, plaintext string) bool {
	return string(hash) == plaintext
}

var (
	_ ports.Hasher = (*Bcrypt)(nil)
	_ ports.Hasher = Fake{}
)
