package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"familycard/internal/store"
	"familycard/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrUnresolvableUser = errors.New("unable to determine user id")
)

// AuthUser is the authenticated caller resolved from a bearer token.
// Email is best-effort: present in access tokens and in the backend's
// account payload, empty otherwise.
type AuthUser struct {
	ID    string
	Email string
}

// AuthService wraps the external auth backend: registration, login,
// password reset and bearer-token resolution. Credential storage and
// token issuance live entirely in the backend; nothing here touches a
// password beyond passing it through.
type AuthService struct {
	store     store.Client
	jwtSecret []byte
}

// NewAuthService creates a new auth service. When jwtSecret is
// non-empty, access tokens are verified locally (the backend signs them
// HS256 with that shared secret) instead of a per-request round trip.
func NewAuthService(st store.Client, jwtSecret string) *AuthService {
	s := &AuthService{store: st}
	if jwtSecret != "" {
		s.jwtSecret = []byte(jwtSecret)
	}
	return s
}

// Register creates a new account. Email and password are validated
// before the backend is called; the optional name is attached as
// account metadata.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (json.RawMessage, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	var metadata map[string]any
	if name != "" {
		metadata = map[string]any{"name": name}
	}
	return s.store.SignUp(ctx, email, password, metadata)
}

// Login exchanges credentials for a session payload. Failure reasons
// (bad credentials, unverified account) are decided by the backend and
// surfaced as opaque error strings.
func (s *AuthService) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	if email == "" || password == "" {
		return nil, utils.ValidationError{Field: "credentials", Message: "email & password required"}
	}
	return s.store.SignInWithPassword(ctx, email, password)
}

// RequestPasswordReset asks the backend to send a recovery email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, redirectTo string) (json.RawMessage, error) {
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	return s.store.SendPasswordReset(ctx, email, redirectTo)
}

// ResolveUser verifies a bearer token and returns the account it
// belongs to. With a configured JWT secret the token is checked locally;
// otherwise the backend is asked. Any failure is terminal for the
// request: no retry, no refresh.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (*AuthUser, error) {
	if len(s.jwtSecret) > 0 {
		return s.resolveLocal(token)
	}
	return s.resolveRemote(ctx, token)
}

func (s *AuthService) resolveLocal(token string) (*AuthUser, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrUnresolvableUser
	}
	email, _ := claims["email"].(string)
	return &AuthUser{ID: sub, Email: email}, nil
}

func (s *AuthService) resolveRemote(ctx context.Context, token string) (*AuthUser, error) {
	payload, err := s.store.AuthUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return ExtractUser(payload)
}

// userShape covers the shapes the backend has been seen returning an
// account under: nested below user, directly at the top level, or one
// level down below data.
type userShape struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	User  *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Data *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		User  *struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	} `json:"data"`
}

// ExtractUser pulls a stable user identifier out of a verified-token
// payload, tolerating the shapes the backend's client library has
// produced across versions.
func ExtractUser(payload json.RawMessage) (*AuthUser, error) {
	var shape userShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil, ErrUnresolvableUser
	}

	switch {
	case shape.User != nil && shape.User.ID != "":
		return &AuthUser{ID: shape.User.ID, Email: shape.User.Email}, nil
	case shape.ID != "":
		return &AuthUser{ID: shape.ID, Email: shape.Email}, nil
	case shape.Data != nil && shape.Data.User != nil && shape.Data.User.ID != "":
		return &AuthUser{ID: shape.Data.User.ID, Email: shape.Data.User.Email}, nil
	case shape.Data != nil && shape.Data.ID != "":
		return &AuthUser{ID: shape.Data.ID, Email: shape.Data.Email}, nil
	}
	return nil, ErrUnresolvableUser
}
