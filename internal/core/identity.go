package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenService issues and verifies signed bearer tokens whose subject is a user id.
type TokenService interface {
	Issue(subject uuid.UUID) (token string, expiresAt time.Time, err error)
	// Verify returns the subject of a valid, unexpired token.
	Verify(token string) (uuid.UUID, error)
}

// CredentialVerifier checks a plaintext secret against a stored hash.
type CredentialVerifier interface {
	Verify(plain string, hash []byte) bool
}

// PasswordHasher produces the stored form of a password.
type PasswordHasher interface {
	Hash(plain string) ([]byte, error)
}

// IdentityResolver turns a bearer token into the acting user.
type IdentityResolver struct {
	tokens TokenService
	store  Store
}

func NewIdentityResolver(tokens TokenService, store Store) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, store: store}
}

// Resolve fails with ErrUnauthenticated when the token is missing, malformed,
// expired, or names a user that no longer exists.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, unauthenticatedf("missing bearer token")
	}
	subject, err := r.tokens.Verify(token)
	if err != nil {
		return nil, unauthenticatedf("invalid or expired token")
	}
	user, err := r.store.Repos().Users().Get(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthenticatedf("token subject does not match a user")
		}
		return nil, err
	}
	return user, nil
}

// RequireReader passes admins and readers.
func RequireReader(user *User) (*User, error) {
	if user == nil {
		return nil, unauthenticatedf("authentication required")
	}
	if !user.Role.CanRead() {
		return nil, forbiddenf("you do not have permission to access this resource")
	}
	return user, nil
}

// RequireAdmin passes admins only.
func RequireAdmin(user *User) (*User, error) {
	if user == nil {
		return nil, unauthenticatedf("authentication required")
	}
	if !user.Role.IsAdmin() {
		return nil, forbiddenf("you do not have permission to access this resource")
	}
	return user, nil
}
