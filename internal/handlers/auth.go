// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// POST /auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req services.GoogleLoginRequest
	if !bindJSON(c, &req) || !validRequest(c, &req) {
		return
	}

	authResponse, err := h.authService.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if errors.Is(err, services.ErrUnauthenticated) {
		lang := utils.GetLangFromContext(c)
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthProviderFailed))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondAuth(c, authResponse)
}

// POST /auth/demo
func (h *AuthHandler) DemoLogin(c *gin.Context) {
	authResponse, err := h.authService.LoginDemo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondAuth(c, authResponse)
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshRequest
	if !bindJSON(c, &req) || !validRequest(c, &req) {
		return
	}

	authResponse, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":          authResponse.User,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

func respondAuth(c *gin.Context, authResponse *services.AuthResponse) {
	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"user":          authResponse.User,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	})
}
