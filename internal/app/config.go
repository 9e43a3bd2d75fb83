package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hakmun-app/hakmun-backend/internal/platform/envutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/objstore"
)

type Config struct {
	Env  string
	Port string

	DatabaseURL      string
	SessionJWTSecret string

	AppleClientIDs   []string
	RootAdminUserIDs []uuid.UUID
	AllowedOrigins   []string

	ObjectStorage objstore.Config

	SmokeEnabled    bool
	SmokeSecretHash string
	SmokeUserID     uuid.UUID
}

func (c Config) Production() bool { return c.Env == "production" }

func LoadConfig() (Config, error) {
	cfg := Config{
		Env:              envutil.String("APP_ENV", "development"),
		Port:             envutil.String("PORT", "8080"),
		DatabaseURL:      envutil.String("DATABASE_URL", ""),
		SessionJWTSecret: envutil.String("SESSION_JWT_SECRET", ""),
		AppleClientIDs:   envutil.List("APPLE_CLIENT_IDS"),
		AllowedOrigins:   envutil.List("CORS_ALLOWED_ORIGINS"),
		ObjectStorage:    objstore.ConfigFromEnv(),
		SmokeEnabled:     envutil.Bool("ENABLE_SMOKE_TOKEN", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionJWTSecret == "" {
		return Config{}, fmt.Errorf("SESSION_JWT_SECRET is required")
	}
	if len(cfg.AppleClientIDs) == 0 {
		return Config{}, fmt.Errorf("APPLE_CLIENT_IDS is required")
	}

	for _, raw := range envutil.List("ROOT_ADMIN_USER_IDS") {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("ROOT_ADMIN_USER_IDS contains %q: %w", raw, err)
		}
		cfg.RootAdminUserIDs = append(cfg.RootAdminUserIDs, id)
	}
	if cfg.Production() && len(cfg.RootAdminUserIDs) == 0 {
		return Config{}, fmt.Errorf("ROOT_ADMIN_USER_IDS is required in production")
	}

	// The smoke service only ever sees the hash.
	if raw := envutil.String("SMOKE_TEST_SECRET", ""); raw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			return Config{}, fmt.Errorf("SMOKE_TEST_SECRET: %w", err)
		}
		cfg.SmokeSecretHash = string(hash)
	}
	if raw := envutil.String("SMOKE_TEST_USER_ID", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("SMOKE_TEST_USER_ID: %w", err)
		}
		cfg.SmokeUserID = id
	}
	if cfg.SmokeEnabled && cfg.Production() {
		return Config{}, fmt.Errorf("ENABLE_SMOKE_TOKEN must be off in production")
	}

	return cfg, nil
}
