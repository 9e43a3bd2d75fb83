package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/hakmun-app/hakmun-backend/internal/data/db"
	httpx "github.com/hakmun-app/hakmun-backend/internal/http"
	"github.com/hakmun-app/hakmun-backend/internal/platform/envutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// adminSafetyInterval is the background cadence of the root admin monitor.
// The hot paths (whoami, admin search) additionally trigger throttled runs.
const adminSafetyInterval = 5 * time.Minute

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpx.Server
	Cfg      Config
	Repos    Repos
	Services Services
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig()
	if err != nil {
		log.Sync()
		return nil, err
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	pg, err := db.New(cfg.DatabaseURL, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, serviceset, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   server,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

// Run blocks until ctx is cancelled or the server fails. The root admin
// monitor runs once at boot and then on a fixed ticker alongside the server.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}

	if err := a.Services.AdminSafety.RunNow(ctx); err != nil {
		a.Log.Error("Admin safety boot check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("Starting server", "port", a.Cfg.Port, "env", a.Cfg.Env)
		return a.Server.Start(":" + a.Cfg.Port)
	})

	g.Go(func() error {
		ticker := time.NewTicker(adminSafetyInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := a.Services.AdminSafety.RunNow(ctx); err != nil {
					a.Log.Error("Admin safety run failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
