package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ABFerraz00/mandacafe/middlewares"
	"github.com/ABFerraz00/mandacafe/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	Auth     *services.AuthService
	strategy string
	logger   *zap.Logger
}

func NewAuthController(auth *services.AuthService, strategy string, logger *zap.Logger) *AuthController {
	return &AuthController{Auth: auth, strategy: strategy, logger: logger}
}

// Login accepts either a username or an email alongside the password.
func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFieldError(c, http.StatusBadRequest, "password", "username and password are required")
		return
	}
	identifier := strings.TrimSpace(input.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(input.Email)
	}
	if identifier == "" {
		respondFieldError(c, http.StatusBadRequest, "username", "username and password are required")
		return
	}

	result, err := ac.Auth.Login(identifier, input.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		ac.logger.Warn("failed login attempt",
			zap.String("identifier", identifier),
			zap.String("ip", c.ClientIP()),
		)
		respondError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		respondInternal(c, err, "AuthError", false)
		return
	}

	ac.logger.Info("login succeeded",
		zap.String("user", result.User.Username),
		zap.String("role", result.User.Role),
		zap.String("ip", c.ClientIP()),
	)
	c.JSON(http.StatusOK, gin.H{
		"message":   "login successful",
		"data":      result,
		"timestamp": time.Now(),
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	identity, ok := middlewares.CurrentIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	user := *identity
	if acc, found := ac.Auth.Lookup(identity.ID); found {
		user.Name = acc.Name
	}
	respondData(c, http.StatusOK, user)
}

// Logout is advisory: tokens are stateless, so the client discards its copy.
func (ac *AuthController) Logout(c *gin.Context) {
	if identity, ok := middlewares.CurrentIdentity(c); ok {
		ac.logger.Info("logout", zap.String("user", identity.Username), zap.String("ip", c.ClientIP()))
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful", "timestamp": time.Now()})
}

func (ac *AuthController) Users(c *gin.Context) {
	respondData(c, http.StatusOK, ac.Auth.Users())
}

func (ac *AuthController) Status(c *gin.Context) {
	body := gin.H{
		"authenticated": false,
		"strategy":      ac.strategy,
		"timestamp":     time.Now(),
	}
	if identity, ok := middlewares.CurrentIdentity(c); ok {
		body["authenticated"] = true
		body["user"] = identity
	}
	c.JSON(http.StatusOK, body)
}
