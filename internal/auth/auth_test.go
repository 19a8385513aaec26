package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/rideledger/internal/models"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestGenerateThenParse(t *testing.T) {
	tm := NewTokenManager(secret, "rideledger", time.Hour)
	token, err := tm.Generate(models.User{ID: 42})
	require.NoError(t, err)

	id, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager(secret, "rideledger", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := tm.Generate(models.User{ID: 1})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	tm := NewTokenManager(secret, "rideledger", time.Hour)

	other := NewTokenManager("ffffffffffffffffffffffffffffffff", "rideledger", time.Hour)
	forged, err := other.Generate(models.User{ID: 1})
	require.NoError(t, err)
	_, err = tm.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	wrongIssuer := NewTokenManager(secret, "someone-else", time.Hour)
	token, err := wrongIssuer.Generate(models.User{ID: 1})
	require.NoError(t, err)
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong issuer")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "rideledger", Subject: "1"}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = tm.Parse(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing exp")

	_, err = tm.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNonNumericSubject(t *testing.T) {
	tm := NewTokenManager(secret, "rideledger", time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "rideledger",
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret-pass"))
}

func TestUserContext(t *testing.T) {
	_, ok := UserFrom(context.Background())
	assert.False(t, ok)
	ctx := WithUser(context.Background(), models.User{ID: 3})
	u, ok := UserFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), u.ID)
}
