package service

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when no backend session token has been supplied.
var ErrNoToken = errors.New("no session token")

// ErrTokenExpired is returned by Validate when the held token is past its
// expiry claim. Obtaining a fresh token is the auth collaborator's job.
var ErrTokenExpired = errors.New("session token expired")

// Claims is the backend-issued JWT claims shape.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService holds the bearer token obtained by the external auth flow
// and exposes the identity baked into it. When a signing secret is
// configured the signature is verified; otherwise claims are only parsed,
// since the backend remains the enforcing party.
type TokenService struct {
	secret []byte

	mu     sync.RWMutex
	raw    string
	claims *Claims
}

// NewTokenService creates a TokenService. secret may be empty.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// SetToken installs a new bearer token and parses its claims.
func (s *TokenService) SetToken(raw string) error {
	claims := &Claims{}
	if len(s.secret) > 0 {
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		})
		if err != nil {
			return err
		}
		if !token.Valid {
			return errors.New("invalid token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return err
		}
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return errors.New("token missing user id")
	}

	s.mu.Lock()
	s.raw = raw
	s.claims = claims
	s.mu.Unlock()
	return nil
}

// Token returns the raw bearer token for backend calls.
func (s *TokenService) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.raw == "" {
		return "", ErrNoToken
	}
	return s.raw, nil
}

// UserID returns the identity of the current user.
func (s *TokenService) UserID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return "", ErrNoToken
	}
	return s.claims.UserID, nil
}

// Validate pre-checks token expiry before a remote call is attempted.
func (s *TokenService) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ErrNoToken
	}
	if s.claims.ExpiresAt != nil && time.Now().After(s.claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}
