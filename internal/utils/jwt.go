package utils // package utils provides helper functions for token creation and parsing

import (
	"errors"
	"fmt"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Roles carried in the "role" claim.  An admin manages every theater; a
// staff token may only book, cancel and import inside the theaters listed
// in its "theaters" claim.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
	Token string    `json:"token"`      // the serialized JWT string
	Exp   time.Time `json:"expires_at"` // the UTC expiration time
}

// Claims is the payload of an access token.  Theaters scopes a staff
// token; it is ignored for admins.
type Claims struct {
	Role     string   `json:"role"`
	Theaters []uint64 `json:"theaters,omitempty"`
	jwt.RegisteredClaims
}

// CanAccess reports whether the holder may act on a theater.
func (c *Claims) CanAccess(theaterID uint64) bool {
	if c.Role == RoleAdmin {
		return true
	}
	for _, id := range c.Theaters {
		if id == theaterID {
			return true
		}
	}
	return false
}

// NewAccessToken builds and signs an HS256 JWT.  It takes the signing
// secret, the subject (an operator name), the role, the theaters a staff
// token is limited to and a TTL in minutes.  The JWT includes standard
// claims: subject (sub), expiration (exp) and issued at (iat).
func NewAccessToken(secret, subject, role string, theaters []uint64, ttlMin int) (AccessToken, error) {
	if role != RoleAdmin && role != RoleStaff {
		return AccessToken{}, fmt.Errorf("unknown role %q", role)
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := Claims{
		Role:     role,
		Theaters: theaters,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	// Create a new token object specifying the signing method (HS256) and
	// sign it with the provided secret to obtain the string form.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrInvalidToken is returned for tokens that fail signature, algorithm or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// ParseAccessToken validates raw and returns its claims.  Only HMAC
// signatures are accepted.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject any token not signed with HMAC so an attacker cannot
		// switch the algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
