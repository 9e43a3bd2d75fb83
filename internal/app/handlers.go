package app

import (
	httpx "github.com/hakmun-app/hakmun-backend/internal/http"
	httpH "github.com/hakmun-app/hakmun-backend/internal/http/handlers"
	httpMW "github.com/hakmun-app/hakmun-backend/internal/http/middleware"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	Session *httpH.SessionHandler
	Admin   *httpH.AdminHandler
	Content *httpH.ContentHandler
	Library *httpH.LibraryHandler
	Vocab   *httpH.VocabHandler
	Media   *httpH.MediaHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(),
		Auth:    httpH.NewAuthHandler(services.Identity, services.Session, services.Smoke),
		Session: httpH.NewSessionHandler(services.Session, services.Account),
		Admin:   httpH.NewAdminHandler(services.AdminUsers, services.Session),
		Content: httpH.NewContentHandler(services.Content),
		Library: httpH.NewLibraryHandler(services.Library, services.Moderation, services.Share),
		Vocab:   httpH.NewVocabHandler(services.Vocab),
		Media:   httpH.NewMediaHandler(services.Media),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Session),
	}
}

func wireServer(log *logger.Logger, cfg Config, services Services, handlers Handlers, middleware Middleware) *httpx.Server {
	return httpx.NewServer(httpx.RouterConfig{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		SmokeEnabled:   services.Smoke.Enabled(),

		AuthMiddleware: middleware.Auth,

		AuthHandler:    handlers.Auth,
		SessionHandler: handlers.Session,
		AdminHandler:   handlers.Admin,
		ContentHandler: handlers.Content,
		LibraryHandler: handlers.Library,
		VocabHandler:   handlers.Vocab,
		MediaHandler:   handlers.Media,

		HealthHandler: handlers.Health,
	})
}
