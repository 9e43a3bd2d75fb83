package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// SignedURLTTL bounds how long a read URL stays valid. URLs are issued per
// request and never persisted.
const SignedURLTTL = 15 * time.Minute

type Config struct {
	Endpoint string
	Bucket   string
	KeyID    string
	Secret   string
	Region   string
}

// ConfigFromEnv reads OBJECT_STORAGE_*. A zero bucket means object storage
// is not configured and media endpoints must answer 503.
func ConfigFromEnv() Config {
	return Config{
		Endpoint: strings.TrimSpace(os.Getenv("OBJECT_STORAGE_ENDPOINT")),
		Bucket:   strings.TrimSpace(os.Getenv("OBJECT_STORAGE_BUCKET")),
		KeyID:    strings.TrimSpace(os.Getenv("OBJECT_STORAGE_KEY_ID")),
		Secret:   os.Getenv("OBJECT_STORAGE_SECRET"),
		Region:   strings.TrimSpace(os.Getenv("OBJECT_STORAGE_REGION")),
	}
}

func (c Config) Configured() bool {
	return c.Bucket != "" && c.KeyID != "" && c.Secret != ""
}

// Store is the key-addressed blob store behind media assets. Keys are
// computed by the media service; the store never invents them.
type Store interface {
	Upload(ctx context.Context, key, mimeType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	// SignedGetURL issues a short-lived V4 read URL for the key.
	SignedGetURL(key string, ttl time.Duration) (string, error)
}

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	cfg    Config
}

func New(log *logger.Logger, cfg Config) (Store, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("object storage is not configured")
	}
	serviceLog := log.With("service", "ObjectStore")

	ctx := context.Background()
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Object storage initialized",
		"endpoint", cfg.Endpoint,
		"bucket", cfg.Bucket,
		"region", cfg.Region,
	)
	return &gcsStore{log: serviceLog, client: client, cfg: cfg}, nil
}

func (s *gcsStore) Upload(ctx context.Context, key, mimeType string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	w.CacheControl = "no-store"
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish object %q: %w", key, err)
	}
	return nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.client.Bucket(s.cfg.Bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

func (s *gcsStore) SignedGetURL(key string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > SignedURLTTL {
		ttl = SignedURLTTL
	}
	url, err := storage.SignedURL(s.cfg.Bucket, key, &storage.SignedURLOptions{
		GoogleAccessID: s.cfg.KeyID,
		PrivateKey:     []byte(s.cfg.Secret),
		Method:         http.MethodGet,
		Expires:        time.Now().Add(ttl),
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %q: %w", key, err)
	}
	return url, nil
}
