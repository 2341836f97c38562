package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidInternalAPIKey = errors.New("invalid internal api key")
)

// Claims are issued by the auth service; only the HMAC shared secret is
// needed to verify them here.
type Claims struct {
	UserID uint64   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

func (v *TokenValidator) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

type APIKeyValidator interface {
	ValidateInternalAPIKey(ctx context.Context, apiKey string) error
}

// InternalAPIKeyAuthenticator checks the key presented by internal callers
// against a single bcrypt hash from configuration.
type InternalAPIKeyAuthenticator struct {
	hash []byte
}

func NewInternalAPIKeyAuthenticator(hash string) *InternalAPIKeyAuthenticator {
	return &InternalAPIKeyAuthenticator{hash: []byte(strings.TrimSpace(hash))}
}

func (a *InternalAPIKeyAuthenticator) ValidateInternalAPIKey(_ context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || len(a.hash) == 0 {
		return ErrInvalidInternalAPIKey
	}

	err := bcrypt.CompareHashAndPassword(a.hash, []byte(apiKey))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidInternalAPIKey
	}
	return fmt.Errorf("compare api key: %w", err)
}

func GenerateInternalAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func HashInternalAPIKey(apiKey string) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", errors.New("api key is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
