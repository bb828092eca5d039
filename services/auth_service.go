package services

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// AdminRoles may use the administrative routes.
var AdminRoles = []string{RoleAdmin, RoleManager}

var (
	ErrMissingCredentials = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"nome"`
	Role     string `json:"role"`
}

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

var staticAdmin = Identity{
	ID:       1,
	Username: "admin",
	Email:    "admin@mandacafe.com.br",
	Name:     "Administrador",
	Role:     RoleAdmin,
}

// StaticTokenAuthenticator accepts any non-empty bearer token, or the
// configured X-API-Key, and maps it to a fixed administrator.
type StaticTokenAuthenticator struct {
	apiKey string
}

func NewStaticTokenAuthenticator(apiKey string) *StaticTokenAuthenticator {
	return &StaticTokenAuthenticator{apiKey: apiKey}
}

func (a *StaticTokenAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if a.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
			return nil, ErrInvalidToken
		}
		id := staticAdmin
		return &id, nil
	}
	if BearerToken(r) == "" {
		return nil, ErrMissingCredentials
	}
	id := staticAdmin
	return &id, nil
}

// JWTAuthenticator verifies HS256 tokens issued by AuthService.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret []byte) *JWTAuthenticator {
	return &JWTAuthenticator{secret: secret}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, ErrMissingCredentials
	}
	claims, err := utils.ParseJWT(a.secret, token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

// Account is one of the fixed administrative users.
type Account struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"nome"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Username: a.Username, Email: a.Email, Name: a.Name, Role: a.Role}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
	User      Identity  `json:"user"`
}

// AuthService checks credentials against the in-memory accounts and issues tokens.
type AuthService struct {
	accounts []Account
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(secret []byte, ttl time.Duration, adminPassword, managerPassword string) (*AuthService, error) {
	adminHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return nil, err
	}
	managerHash, err := utils.HashPassword(managerPassword)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		accounts: []Account{
			{ID: 1, Username: "admin", Email: "admin@mandacafe.com.br", Name: "Administrador", Role: RoleAdmin, PasswordHash: adminHash},
			{ID: 2, Username: "gerente", Email: "gerente@mandacafe.com.br", Name: "Gerente", Role: RoleManager, PasswordHash: managerHash},
		},
		secret: secret,
		ttl:    ttl,
	}, nil
}

// Login accepts a username or email.
func (s *AuthService) Login(identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	for _, acc := range s.accounts {
		if !strings.EqualFold(acc.Username, identifier) && !strings.EqualFold(acc.Email, identifier) {
			continue
		}
		if !utils.CheckPasswordHash(password, acc.PasswordHash) {
			return nil, ErrInvalidCredentials
		}

		token, expiresAt, err := utils.GenerateJWT(s.secret, utils.Claims{
			UserID:   acc.ID,
			Username: acc.Username,
			Email:    acc.Email,
			Role:     acc.Role,
		}, s.ttl)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			Token:     token,
			ExpiresAt: expiresAt,
			ExpiresIn: int64(s.ttl.Seconds()),
			User:      acc.Identity(),
		}, nil
	}
	return nil, ErrInvalidCredentials
}

// Lookup finds the account behind an identity so responses can carry its display name.
func (s *AuthService) Lookup(id uint) (Account, bool) {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return Account{}, false
}

func (s *AuthService) Users() []Account {
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}
