package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "alice", RoleStaff, []uint64{4, 9}, 30)
	require.NoError(t, err)
	assert.False(t, tok.Exp.IsZero())

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleStaff, claims.Role)
	assert.True(t, claims.CanAccess(9))
	assert.False(t, claims.CanAccess(5))

	_, err = ParseAccessToken("wrong", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnknownRoleIsRefused(t *testing.T) {
	_, err := NewAccessToken("s3cret", "bob", "owner", nil, 30)
	assert.Error(t, err)
}

func TestNoneAlgorithmIsRejected(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminCanAccessEveryTheater(t *testing.T) {
	c := Claims{Role: RoleAdmin}
	assert.True(t, c.CanAccess(1))
	assert.True(t, c.CanAccess(1<<40))
}
