package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/azure-wallet/azure_wallet/internal/rank"
)

// ErrInvalidToken indicates a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Service issues and verifies session tokens after PIN authentication.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a token service signing with the shared HS256 secret.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Token is an issued session token and its validity window.
type Token struct {
	Value     string
	ExpiresIn int64
}

// Issue signs a session token for an authenticated user.
func (s *Service) Issue(username string, tier rank.Tier) (Token, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  username,
		"rank": tier.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// Verify validates a session token and returns the subject username.
func (s *Service) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
