package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type AuthHandler struct {
	identitySvc services.IdentityService
	sessionSvc  services.SessionService
	smokeSvc    services.SmokeService
}

func NewAuthHandler(identitySvc services.IdentityService, sessionSvc services.SessionService, smokeSvc services.SmokeService) *AuthHandler {
	return &AuthHandler{identitySvc: identitySvc, sessionSvc: sessionSvc, smokeSvc: smokeSvc}
}

func userSummary(u *types.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"role":        u.Role,
		"isActive":    u.IsActive,
		"isAdmin":     u.IsAdmin,
		"isRootAdmin": u.IsRootAdmin,
	}
}

// POST /auth/apple
func (ah *AuthHandler) AppleSignIn(c *gin.Context) {
	var req struct {
		IdentityToken string `json:"identityToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IdentityToken == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, created, err := ah.identitySvc.ResolveAppleSignIn(c.Request.Context(), req.IdentityToken)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	pair, err := ah.sessionSvc.IssueTokens(u)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
		"created":      created,
		"user":         userSummary(u),
	})
}

// POST /auth/smoke
func (ah *AuthHandler) SmokeSignIn(c *gin.Context) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pair, u, err := ah.smokeSvc.IssueTokens(c.Request.Context(), req.Secret)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
		"user":         userSummary(u),
	})
}
