package middleware

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MemberClaims is the bearer token payload. UserID is the numeric member id.
type MemberClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

var errMissingMember = errors.New("token has no user_id")

// ParseMemberToken verifies an HS256 token and returns its member id.
// Expiry is enforced by the parser when the token carries one.
func ParseMemberToken(secret []byte, tokenString string) (uint64, error) {
	claims := &MemberClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return 0, errMissingMember
	}

	return claims.UserID, nil
}

// SignMemberToken issues a token for memberID. Used by tests and tooling.
func SignMemberToken(secret []byte, memberID uint64, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &MemberClaims{
		UserID:           memberID,
		RegisteredClaims: claims,
	})
	return token.SignedString(secret)
}
