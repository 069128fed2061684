package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/GioMjds/savoury-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Kept distinct because they change retry-vs-reject
// behavior for callers: an expired access token can be refreshed, a bad
// signature or garbage token cannot.
var (
	ErrExpired          = fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
	ErrInvalidSignature = fmt.Errorf("invalid token signature: %w", domain.ErrUnauthorized)
	ErrMalformed        = fmt.Errorf("malformed token: %w", domain.ErrUnauthorized)
	ErrWrongTokenType   = fmt.Errorf("wrong token type: %w", domain.ErrUnauthorized)
)

// Both token kinds are HS256 under the same secret, so each carries a type
// claim checked on verification. Without it a validly signed access token
// could be replayed as a refresh token.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrNoSecret is returned when a provider is constructed without a signing
// secret. Tokens must never be signed with an empty key.
var ErrNoSecret = errors.New("jwt signing secret is not configured")

// AccessClaims is the payload of the short-lived access token.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of the long-lived refresh token. It carries
// only the user id; everything else is re-read from the store on refresh.
type RefreshClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a single symmetric secret.
type Provider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(secret string, accessTTL, refreshTTL time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Provider{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// SignAccess mints the access token carrying the full session claims.
func (p *Provider) SignAccess(sc domain.SessionClaims) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:    sc.UserID,
		Email:     sc.Email,
		Username:  sc.Username,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// SignRefresh mints the refresh token carrying only the user id.
func (p *Provider) SignRefresh(userID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID:    userID,
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// VerifyAccess parses and verifies an access token.
func (p *Provider) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// VerifyRefresh parses and verifies a refresh token.
func (p *Provider) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (p *Provider) verify(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	})
	switch {
	case err == nil && token.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("verify token: %w", domain.ErrUnauthorized)
	}
}
