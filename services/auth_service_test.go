package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authSecret = []byte("auth-test-secret")

func newTestAuthService(t *testing.T, ttl time.Duration) *AuthService {
	t.Helper()
	svc, err := NewAuthService(authSecret, ttl, "admin123", "gerente123")
	require.NoError(t, err)
	return svc
}

func requestWith(header, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if header != "" {
		r.Header.Set(header, value)
	}
	return r
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t, time.Hour)

	result, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, RoleAdmin, result.User.Role)

	result, err = svc.Login("GERENTE@mandacafe.com.br", "gerente123")
	require.NoError(t, err)
	assert.Equal(t, "gerente", result.User.Username)
	assert.Equal(t, RoleManager, result.User.Role)

	_, err = svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUsersHidesHashes(t *testing.T) {
	svc := newTestAuthService(t, time.Hour)

	users := svc.Users()
	require.Len(t, users, 2)

	acc, ok := svc.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "Gerente", acc.Name)

	_, ok = svc.Lookup(7)
	assert.False(t, ok)
}

func TestJWTAuthenticator(t *testing.T) {
	svc := newTestAuthService(t, time.Hour)
	authn := NewJWTAuthenticator(authSecret)

	result, err := svc.Login("gerente", "gerente123")
	require.NoError(t, err)

	identity, err := authn.Authenticate(requestWith("Authorization", "Bearer "+result.Token))
	require.NoError(t, err)
	assert.Equal(t, uint(2), identity.ID)
	assert.Equal(t, "gerente", identity.Username)
	assert.Equal(t, RoleManager, identity.Role)

	_, err = authn.Authenticate(requestWith("", ""))
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = authn.Authenticate(requestWith("Authorization", "Bearer not-a-jwt"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = authn.Authenticate(requestWith("Authorization", "Basic YWRtaW46YWRtaW4="))
	assert.ErrorIs(t, err, ErrMissingCredentials)

	other := NewJWTAuthenticator([]byte("different"))
	_, err = other.Authenticate(requestWith("Authorization", "Bearer "+result.Token))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuthenticator_Expired(t *testing.T) {
	token, _, err := utils.GenerateJWT(authSecret, utils.Claims{UserID: 1, Role: RoleAdmin}, -time.Second)
	require.NoError(t, err)

	_, err = NewJWTAuthenticator(authSecret).Authenticate(requestWith("Authorization", "Bearer "+token))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestStaticTokenAuthenticator(t *testing.T) {
	authn := NewStaticTokenAuthenticator("cafe-key")

	identity, err := authn.Authenticate(requestWith("Authorization", "Bearer anything"))
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, identity.Role)
	assert.Equal(t, uint(1), identity.ID)

	identity, err = authn.Authenticate(requestWith("X-API-Key", "cafe-key"))
	require.NoError(t, err)
	assert.Equal(t, "admin", identity.Username)

	_, err = authn.Authenticate(requestWith("X-API-Key", "wrong"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = authn.Authenticate(requestWith("Authorization", "Bearer   "))
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewStaticTokenAuthenticator("").Authenticate(requestWith("X-API-Key", "anything"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	// identities are copies
	identity.Role = "guest"
	again, err := authn.Authenticate(requestWith("Authorization", "Bearer x"))
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, again.Role)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken(requestWith("Authorization", "Bearer abc")))
	assert.Equal(t, "abc", BearerToken(requestWith("Authorization", "bearer abc")))
	assert.Empty(t, BearerToken(requestWith("Authorization", "Token abc")))
	assert.Empty(t, BearerToken(requestWith("", "")))
}
