package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"familycard/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	st := &fakeStore{}
	svc := NewAuthService(st, "")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "password123"},
		{"bad email", "not-an-email", "password123"},
		{"missing password", "a@b.com", ""},
		{"short password", "a@b.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password, "")
			require.Error(t, err)
			var verr utils.ValidationError
			assert.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
		})
	}

	// The backend must not have been called for any invalid input
	assert.Empty(t, st.calls)
}

func TestRegisterPassesMetadata(t *testing.T) {
	var gotMetadata map[string]any
	st := &fakeStore{
		signUpFn: func(email, password string, metadata map[string]any) (json.RawMessage, error) {
			gotMetadata = metadata
			return json.RawMessage(`{"id":"u1"}`), nil
		},
	}
	svc := NewAuthService(st, "")

	data, err := svc.Register(context.Background(), "a@b.com", "password123", "Alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(data))
	assert.Equal(t, map[string]any{"name": "Alice"}, gotMetadata)
}

func TestLoginPassesThroughBackendError(t *testing.T) {
	st := &fakeStore{
		signInFn: func(email, password string) (json.RawMessage, error) {
			return nil, errors.New("Invalid login credentials")
		},
	}
	svc := NewAuthService(st, "")

	_, err := svc.Login(context.Background(), "a@b.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())
}

func TestExtractUser(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantID  string
		wantErr bool
	}{
		{"nested under user", `{"user":{"id":"u1"}}`, "u1", false},
		{"direct id", `{"id":"u1"}`, "u1", false},
		{"nested under data.user", `{"data":{"user":{"id":"u1"}}}`, "u1", false},
		{"nested under data", `{"data":{"id":"u1"}}`, "u1", false},
		{"empty data", `{"data":{}}`, "", true},
		{"empty object", `{}`, "", true},
		{"not json", `nope`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := ExtractUser(json.RawMessage(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnresolvableUser)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestResolveUserRemote(t *testing.T) {
	st := &fakeStore{
		authUserFn: func(token string) (json.RawMessage, error) {
			assert.Equal(t, "tok", token)
			return json.RawMessage(`{"user":{"id":"u1","email":"a@b.com"}}`), nil
		},
	}
	svc := NewAuthService(st, "")

	user, err := svc.ResolveUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, []string{"authuser"}, st.calls)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolveUserLocalJWT(t *testing.T) {
	st := &fakeStore{}
	svc := NewAuthService(st, "shared-secret")

	t.Run("ValidToken", func(t *testing.T) {
		tok := signToken(t, "shared-secret", jwt.MapClaims{
			"sub":   "u1",
			"email": "a@b.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		user, err := svc.ResolveUser(context.Background(), tok)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "a@b.com", user.Email)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		tok := signToken(t, "shared-secret", jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := svc.ResolveUser(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		tok := signToken(t, "other-secret", jwt.MapClaims{"sub": "u1"})

		_, err := svc.ResolveUser(context.Background(), tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		tok := signToken(t, "shared-secret", jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := svc.ResolveUser(context.Background(), tok)
		assert.ErrorIs(t, err, ErrUnresolvableUser)
	})

	// No variant above may reach the backend
	assert.Empty(t, st.calls)
}
