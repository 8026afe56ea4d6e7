// Package auth issues and verifies session tokens: HS256 JWTs carrying the
// account username.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required in every token.
const Issuer = "gophauth"

// Claims is the identity carried by a session token.
type Claims struct {
	Username string
}

// tokenClaims is the wire form of Claims.
type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens with a process-wide secret.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenService(secretKey string, validity time.Duration) (*TokenService, error) {
	if secretKey == "" {
		return nil, errors.New("token service: empty secret key")
	}
	if validity <= 0 {
		return nil, errors.New("token service: validity must be positive")
	}
	return &TokenService{secret: []byte(secretKey), validity: validity, now: time.Now}, nil
}

// Validity is the lifetime stamped on every issued token.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue signs claims and returns the token together with its expiry.
func (s *TokenService) Issue(claims Claims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: claims.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify decodes a token issued by this service.
//
// An empty token means "not authenticated" and yields (nil, nil). Any other
// failure matches common.ErrInvalidToken; expired tokens additionally match
// common.ErrTokenExpired.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, nil
	}

	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, tc,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &Claims{Username: tc.Username}, nil
}
