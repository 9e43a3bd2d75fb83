package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type SessionHandler struct {
	sessionSvc services.SessionService
	accountSvc services.AccountService
}

func NewSessionHandler(sessionSvc services.SessionService, accountSvc services.AccountService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, accountSvc: accountSvc}
}

// POST /session/refresh
func (sh *SessionHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pair, u, err := sh.sessionSvc.Refresh(c.Request.Context(), req.RefreshToken)
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

// GET /session/whoami
func (sh *SessionHandler) Whoami(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	view, err := sh.accountSvc.Whoami(c.Request.Context(), rd)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}
