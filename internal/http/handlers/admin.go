package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type AdminHandler struct {
	adminSvc   services.AdminUsersService
	sessionSvc services.SessionService
}

func NewAdminHandler(adminSvc services.AdminUsersService, sessionSvc services.SessionService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, sessionSvc: sessionSvc}
}

// POST /admin/users
func (ah *AdminHandler) CreateUser(c *gin.Context) {
	var req struct {
		Handle string `json:"handle"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	view, err := ah.adminSvc.CreateUser(c.Request.Context(), rd, req.Handle, req.Role)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// GET /admin/users?search=
func (ah *AdminHandler) SearchUsers(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	limit, _ := strconv.Atoi(c.Query("limit"))
	views, err := ah.adminSvc.Search(c.Request.Context(), rd, c.Query("search"), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": views})
}

// PATCH /admin/users/:id
func (ah *AdminHandler) UpdateUser(c *gin.Context) {
	targetID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var patch services.AdminUserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	view, err := ah.adminSvc.UpdateUser(c.Request.Context(), rd, targetID, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /admin/impersonate
func (ah *AdminHandler) Impersonate(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	token, target, err := ah.adminSvc.Impersonate(c.Request.Context(), rd, req.UserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"accessToken": token,
		"expiresIn":   int(services.ImpersonationTokenTTL.Seconds()),
		"user":        userSummary(target),
	})
}

// POST /admin/impersonate/exit
func (ah *AdminHandler) ExitImpersonation(c *gin.Context) {
	token := extractBearer(c)
	if token == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	pair, actor, err := ah.sessionSvc.ExitImpersonation(c.Request.Context(), token)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
		"user":         userSummary(actor),
	})
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
