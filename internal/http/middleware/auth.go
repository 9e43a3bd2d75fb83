package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type AuthMiddleware struct {
	log        *logger.Logger
	sessionSvc services.SessionService
}

func NewAuthMiddleware(log *logger.Logger, sessionSvc services.SessionService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), sessionSvc: sessionSvc}
}

// RequireAuth verifies the bearer token and attaches RequestData to the
// request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing or invalid token"))
			c.Abort()
			return
		}
		ctx, err := am.sessionSvc.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireEntitlement gates an endpoint on one entitlement string. Runs
// after RequireAuth.
func (am *AuthMiddleware) RequireEntitlement(ent string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if !rd.HasEntitlement(ent) {
			response.RespondAPIError(c, apierr.Forbidden("forbidden",
				fmt.Errorf("entitlement %q is required", ent)))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
