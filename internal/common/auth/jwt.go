// internal/common/auth/jwt.go
package auth

import (
	"fmt"

	"capability-explorer/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier checks Supabase access tokens locally with the project JWT secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(token string) (*User, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, errors.NewUnauthorizedError(fmt.Sprintf("jwt rejected: %v", err))
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.NewUnauthorizedError("jwt has no subject")
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &User{ID: sub, Email: email, Role: role}, nil
}
