package auth

import "golang.org/x/crypto/bcrypt"

// BcryptHasher implements both hashing and verification of passwords.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher uses bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), h.cost)
}

func (h *BcryptHasher) Verify(plain string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}
