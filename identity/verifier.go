// Package identity verifies ID tokens issued by the OAuth identity provider.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go-meet/utils/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the provider vouches for.
type Identity struct {
	Email string
	Name  string
}

type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed ID tokens for a fixed audience.
type JWTVerifier struct {
	secret   []byte
	audience string
	issuer   string
}

func NewJWTVerifier(secret, audience, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience, issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, idToken string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims idClaims
	token, err := jwt.ParseWithClaims(idToken, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAPIError("INVALID_TOKEN", "Unexpected signing method", http.StatusUnauthorized)
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: id token rejected: %v", errors.ErrUnauthenticated, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return Identity{}, fmt.Errorf("%w: id token has no email", errors.ErrUnauthenticated)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return Identity{}, fmt.Errorf("%w: email not verified", errors.ErrUnauthenticated)
	}
	name := claims.Name
	if name == "" {
		name = email
	}
	return Identity{Email: email, Name: name}, nil
}
