// Package auth issues and checks the HS256 bearer tokens of the chat API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const DefaultTTL = 24 * time.Hour

type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Signer{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue creates a token whose subject is userID.
func (s *Signer) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates a token and returns its subject.
func (s *Signer) Parse(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// FromRequest reads the bearer token of r and returns its subject.
func (s *Signer) FromRequest(r *http.Request) (string, error) {
	token := ExtractToken(r)
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrInvalidToken)
	}
	return s.Parse(token)
}

func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Fields(auth)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
