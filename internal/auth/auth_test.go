package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef-test"

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	subject := uuid.New()

	token, expiresAt, err := svc.Issue(subject)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
}

func TestJWT_Expired(t *testing.T) {
	svc := NewJWTService(testSecret, time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService(testSecret, time.Hour).Issue(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("another-secret-of-length", time.Hour).Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWT_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService(testSecret, time.Hour).Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWT_BadSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewJWTService(testSecret, time.Hour).Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse", hash))
	assert.False(t, h.Verify("correct horse", []byte("not a hash")))
}
