package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/GioMjds/savoury-api/internal/domain"
	jwtinfra "github.com/GioMjds/savoury-api/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

// Cookie names carrying the signed tokens. The transport layer sets and
// clears them; the service only produces and consumes the signed strings.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// ErrNotConfigured is returned when no signing secret was configured. It is
// checked before any token work so nothing is ever signed with an empty key.
var ErrNotConfigured = fmt.Errorf("session signing is not configured: %w", domain.ErrDependency)

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// TokenPair is one issued session: a short-lived access token carrying the
// full claims and a long-lived refresh token carrying only the user id.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Claims       domain.SessionClaims
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenPair, *domain.User, error)
	Issue(ctx context.Context, userID string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Current(r *http.Request) (*domain.SessionClaims, bool)
	CurrentUser(ctx context.Context, r *http.Request) (*domain.User, bool)
	CookiesToClear() []string
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error)
}

type tokenProvider interface {
	SignAccess(sc domain.SessionClaims) (string, error)
	SignRefresh(userID string) (string, error)
	VerifyAccess(token string) (*jwtinfra.AccessClaims, error)
	VerifyRefresh(token string) (*jwtinfra.RefreshClaims, error)
}

type service struct {
	users  userStore
	tokens tokenProvider
}

// NewService builds the session service. tokens may be nil when no signing
// secret is configured; every issuing path then fails with ErrNotConfigured.
func NewService(users userStore, tokens tokenProvider) Service {
	return &service{users: users, tokens: tokens}
}

// Login verifies the submitted password against the stored hash for the user
// matching identifier (email or username) and issues a token pair. The two
// failure kinds stay distinct sentinels; the HTTP layer presents both as the
// same 401 so responses don't confirm which emails are registered.
func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenPair, *domain.User, error) {
	if req.Identifier == "" || req.Password == "" {
		return nil, nil, fmt.Errorf("identifier and password are required: %w", domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmailOrUsername(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("look up user: %w", domain.ErrDependency)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, fmt.Errorf("invalid password: %w", domain.ErrUnauthorized)
	}
	pair, err := s.Issue(ctx, u.UserID)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

// Issue looks up the user and mints a fresh access/refresh pair.
func (s *service) Issue(ctx context.Context, userID string) (*TokenPair, error) {
	if s.tokens == nil {
		return nil, ErrNotConfigured
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	claims := domain.SessionClaims{UserID: u.UserID, Email: u.Email, Username: u.Username}
	access, err := s.tokens.SignAccess(claims)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.SignRefresh(u.UserID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, Claims: claims}, nil
}

// Refresh verifies the refresh token and rotates the pair. The here-embedded
// user id is re-projected through the store, so a deleted user cannot refresh.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if s.tokens == nil {
		return nil, ErrNotConfigured
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return s.Issue(ctx, claims.UserID)
}

// Current reads the bearer access token from the request and returns its
// claims. A missing or unverifiable token is an ordinary "no session" state
// for route guards, not an error.
func (s *service) Current(r *http.Request) (*domain.SessionClaims, bool) {
	if s.tokens == nil {
		return nil, false
	}
	token := bearerToken(r)
	if token == "" {
		return nil, false
	}
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return nil, false
	}
	return &domain.SessionClaims{UserID: claims.UserID, Email: claims.Email, Username: claims.Username}, true
}

// CurrentUser projects Current through the credential store; absent when
// there is no session or the referenced user no longer exists.
func (s *service) CurrentUser(ctx context.Context, r *http.Request) (*domain.User, bool) {
	claims, ok := s.Current(r)
	if !ok {
		return nil, false
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, false
	}
	return u, true
}

// CookiesToClear names the cookies the transport layer must expire on logout.
// Logout is declarative only: there is no server-side session table, so a
// still-valid token cannot be revoked before its natural expiry.
func (s *service) CookiesToClear() []string {
	return []string{AccessTokenCookie, RefreshTokenCookie}
}

// bearerToken extracts the access token from the access_token cookie, falling
// back to the Authorization header.
func bearerToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
