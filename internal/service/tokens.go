package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/model"
)

// TokenManager issues and verifies HS256 access tokens whose subject is the user id.
type TokenManager struct {
	signKey []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenManager constructs a manager. ttl <= 0 defaults to 24h.
func NewTokenManager(signKey []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{signKey: signKey, ttl: ttl, now: time.Now}
}

// Issue creates a signed token for userID.
func (m *TokenManager) Issue(userID string) (model.Tokens, error) {
	if userID == "" {
		return model.Tokens{}, fmt.Errorf("token subject: %w", errs.ErrValidation)
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Verify checks signature and expiry (30s leeway) and returns the subject.
// Every failure matches errs.ErrInvalidCredentials.
func (m *TokenManager) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("token: %w", errs.ErrInvalidCredentials)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token: empty subject: %w", errs.ErrInvalidCredentials)
	}
	return claims.Subject, nil
}
