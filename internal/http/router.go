package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/hakmun-app/hakmun-backend/internal/http/handlers"
	httpMW "github.com/hakmun-app/hakmun-backend/internal/http/middleware"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string
	SmokeEnabled   bool

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler    *httpH.AuthHandler
	SessionHandler *httpH.SessionHandler
	AdminHandler   *httpH.AdminHandler
	ContentHandler *httpH.ContentHandler
	LibraryHandler *httpH.LibraryHandler
	VocabHandler   *httpH.VocabHandler
	MediaHandler   *httpH.MediaHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/v1")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/apple", cfg.AuthHandler.AppleSignIn)
			if cfg.SmokeEnabled {
				api.POST("/auth/smoke", cfg.AuthHandler.SmokeSignIn)
			}
		}
		if cfg.SessionHandler != nil {
			api.POST("/session/refresh", cfg.SessionHandler.Refresh)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Session
		if cfg.SessionHandler != nil {
			protected.GET("/session/whoami", cfg.SessionHandler.Whoami)
		}

		// Exiting impersonation is the one admin surface that stays
		// reachable while impersonating, since the actor's admin
		// entitlements are suppressed for the duration.
		if cfg.AdminHandler != nil {
			protected.POST("/admin/impersonate/exit",
				cfg.AuthMiddleware.RequireEntitlement(services.EntSessionImpersonating),
				cfg.AdminHandler.ExitImpersonation)
		}
	}

	app := protected.Group("/")
	app.Use(cfg.AuthMiddleware.RequireEntitlement(services.EntAppUse))
	{
		// Content authoring
		if cfg.ContentHandler != nil {
			app.POST("/content/reading-items", cfg.ContentHandler.CreateReadingItem)
			app.GET("/content/reading-items", cfg.ContentHandler.ListReadingItems)
			app.POST("/content/sentences", cfg.ContentHandler.CreateSentence)
			app.GET("/content/sentences", cfg.ContentHandler.ListSentences)
			app.POST("/content/patterns", cfg.ContentHandler.CreatePattern)
			app.GET("/content/patterns", cfg.ContentHandler.ListPatterns)
			app.POST("/content/:type/:id/audience", cfg.ContentHandler.SetAudience)
		}

		// Library and moderation
		if cfg.LibraryHandler != nil {
			app.GET("/library/global", cfg.LibraryHandler.Global)
			app.GET("/library/my-content", cfg.LibraryHandler.MyContent)
			app.GET("/library/shared-with-me", cfg.LibraryHandler.SharedWithMe)
			app.GET("/library/shared-with-class", cfg.LibraryHandler.SharedWithClass)
			app.GET("/library/item-status", cfg.LibraryHandler.ItemStatus)
			app.GET("/library/review-inbox", cfg.LibraryHandler.ReviewInbox)
			app.GET("/library/review-inbox/history", cfg.LibraryHandler.ReviewHistory)
			app.POST("/library/needs-review", cfg.LibraryHandler.NeedsReview)
			app.POST("/library/restore", cfg.LibraryHandler.Restore)
			app.POST("/library/approve", cfg.LibraryHandler.Approve)
			app.POST("/library/reject", cfg.LibraryHandler.Reject)
			app.POST("/library/keep-under-review", cfg.LibraryHandler.KeepUnderReview)
			app.POST("/library/share/user", cfg.LibraryHandler.ShareWithUser)
			app.POST("/library/share/user/revoke", cfg.LibraryHandler.RevokeUserShare)
			app.POST("/library/share/class", cfg.LibraryHandler.ShareWithClass)
			app.POST("/library/share/class/revoke", cfg.LibraryHandler.RevokeClassShare)
		}

		// Vocab pins
		if cfg.VocabHandler != nil {
			app.POST("/vocab/pins", cfg.VocabHandler.Pin)
			app.DELETE("/vocab/pins/:word", cfg.VocabHandler.Unpin)
			app.GET("/vocab/pins", cfg.VocabHandler.List)
		}

		// Media assets
		if cfg.MediaHandler != nil {
			app.POST("/media/assets", cfg.MediaHandler.Upload)
			app.GET("/media/assets", cfg.MediaHandler.ListMine)
			app.GET("/media/assets/:id/url", cfg.MediaHandler.GetURL)
		}
	}

	// Admin
	if cfg.AdminHandler != nil {
		admin := protected.Group("/admin")
		admin.GET("/users",
			cfg.AuthMiddleware.RequireEntitlement(services.EntAdminUsersRead),
			cfg.AdminHandler.SearchUsers)
		admin.POST("/users",
			cfg.AuthMiddleware.RequireEntitlement(services.EntAdminUsersWrite),
			cfg.AdminHandler.CreateUser)
		admin.PATCH("/users/:id",
			cfg.AuthMiddleware.RequireEntitlement(services.EntAdminUsersWrite),
			cfg.AdminHandler.UpdateUser)
		admin.POST("/impersonate",
			cfg.AuthMiddleware.RequireEntitlement(services.EntAdminImpersonate),
			cfg.AdminHandler.Impersonate)
	}

	return r
}
