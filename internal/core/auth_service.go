package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token is a signed bearer token handed to a client.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService exchanges credentials for tokens and checks tokens.
type AuthService struct {
	store    Store
	verifier CredentialVerifier
	tokens   TokenService
}

func NewAuthService(store Store, verifier CredentialVerifier, tokens TokenService) *AuthService {
	return &AuthService{store: store, verifier: verifier, tokens: tokens}
}

// IssueToken returns a bearer token for the user with this email and password.
// An unknown email and a wrong password fail the same way, with ErrForbidden.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (*Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationf("email and password are required")
	}

	user, err := s.store.Repos().Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, forbiddenf("invalid credentials")
		}
		return nil, err
	}
	if !s.verifier.Verify(password, user.PasswordHash) {
		return nil, forbiddenf("invalid credentials")
	}

	return s.TokenFor(user.ID)
}

// TokenFor mints a token for a known user id without a password check.
func (s *AuthService) TokenFor(userID uuid.UUID) (*Token, error) {
	signed, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

// VerifyToken returns the subject of a valid token. It does not look the user up.
func (s *AuthService) VerifyToken(token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, unauthenticatedf("missing bearer token")
	}
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, unauthenticatedf("invalid or expired token")
	}
	return subject, nil
}
