// Package handler exposes the session service over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"session-service/internal/auth/service"
	"session-service/internal/obs"
	userdomain "session-service/internal/user/domain"
)

// LoginRequest is the POST /login body.
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// TokenResponse is the successful login body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthHandler serves login, logout, and the current-user endpoint.
type AuthHandler struct {
	svc *service.AuthService
	log *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

// Login authenticates and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password, req.RememberMe)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		obs.LoginsTotal.WithLabelValues(obs.LoginOutcomeInvalid).Inc()
		unauthorized(c, "Invalid credentials")
		return
	case errors.Is(err, service.ErrSessionsSuspended):
		obs.LoginsTotal.WithLabelValues(obs.LoginOutcomeSuspended).Inc()
		c.JSON(http.StatusForbidden, gin.H{"detail": "Sessions are suspended for this account"})
		return
	case err != nil:
		obs.LoginsTotal.WithLabelValues(obs.LoginOutcomeServerError).Inc()
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	obs.LoginsTotal.WithLabelValues(obs.LoginOutcomeSuccess).Inc()
	c.JSON(http.StatusOK, TokenResponse{AccessToken: res.AccessToken, TokenType: "bearer"})
}

// Logout revokes the presented bearer token. The token only needs a valid
// signature: expired or already revoked tokens still get a 200, since the
// caller's session is dead either way.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, ok := bearerToken(c)
	if !ok {
		unauthorized(c, "Could not validate credentials")
		return
	}

	outcome, err := h.svc.Logout(c.Request.Context(), raw)
	if err != nil {
		h.log.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	msg := "Successfully logged out"
	if outcome == service.LogoutAlreadyRevoked {
		msg = "Token was already revoked"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// LogoutAll advances the caller's revocation watermark, ending every session.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "Could not validate credentials")
		return
	}

	if _, err := h.svc.LogoutAll(c.Request.Context(), u.ID); err != nil {
		h.log.Error("logout all failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All sessions logged out"})
}

// CurrentUserProfile returns the authenticated user's profile.
func (h *AuthHandler) CurrentUserProfile(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "Could not validate credentials")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"is_active": u.IsActive,
	})
}

// CurrentUser returns the user stored in the context by RequireAuth.
func CurrentUser(c *gin.Context) (*userdomain.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*userdomain.User)
	return u, ok
}
