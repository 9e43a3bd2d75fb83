package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	mediarepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/media"
	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
	"github.com/hakmun-app/hakmun-backend/internal/platform/objstore"
)

// Per-family upload caps. The transport layer enforces a coarser outer
// limit; these checks are authoritative.
const (
	MaxImageBytes = 10 << 20
	MaxAudioBytes = 50 << 20
)

// mimeExt is the MIME allowlist with the extension each type maps to in the
// object key scheme.
var mimeExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"audio/mpeg": "mp3",
	"audio/mp4":  "m4a",
	"audio/wav":  "wav",
}

type UploadInput struct {
	MimeType   string
	SizeBytes  int64
	Body       io.Reader
	Title      *string
	Language   *string
	DurationMS *int64
}

// AssetView is an asset row plus a freshly signed read URL. The URL is
// derived per request and never stored.
type AssetView struct {
	Asset *types.MediaAsset `json:"asset"`
	URL   string            `json:"url"`
}

type MediaService interface {
	Upload(ctx context.Context, rd *ctxutil.RequestData, in UploadInput) (*types.MediaAsset, error)
	// GetSignedURL returns a short-lived read URL for an asset the actor
	// owns (root admins may read any asset).
	GetSignedURL(ctx context.Context, rd *ctxutil.RequestData, assetID uuid.UUID) (*AssetView, error)
	ListMine(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.MediaAsset, error)
}

type mediaService struct {
	log       *logger.Logger
	runner    txn.Runner
	assetRepo mediarepo.AssetRepo
	store     objstore.Store
}

// NewMediaService accepts a nil store; every operation then answers 503
// until object storage is configured.
func NewMediaService(log *logger.Logger, runner txn.Runner, assetRepo mediarepo.AssetRepo, store objstore.Store) MediaService {
	return &mediaService{
		log:       log.With("service", "MediaService"),
		runner:    runner,
		assetRepo: assetRepo,
		store:     store,
	}
}

func (s *mediaService) requireStore() error {
	if s.store == nil {
		return apierr.Unavailable("unavailable:object-storage", fmt.Errorf("object storage is not configured"))
	}
	return nil
}

// ObjectKey computes the deterministic storage key for an asset. The key is
// the sole persisted pointer to the blob.
func ObjectKey(ownerUserID, assetID uuid.UUID, mimeType string) string {
	return fmt.Sprintf("users/%s/assets/%s.%s", ownerUserID, assetID, mimeExt[mimeType])
}

func maxBytesFor(mimeType string) int64 {
	if strings.HasPrefix(mimeType, "image/") {
		return MaxImageBytes
	}
	return MaxAudioBytes
}

// ValidateUpload applies the MIME allowlist and the per-family size cap.
func ValidateUpload(mimeType string, sizeBytes int64) error {
	if _, ok := mimeExt[mimeType]; !ok {
		return apierr.New(415, "unsupported:media-type", fmt.Errorf("mime type %q is not allowed", mimeType))
	}
	if sizeBytes <= 0 {
		return apierr.Invalid("invalid:empty-upload", fmt.Errorf("upload is empty"))
	}
	if max := maxBytesFor(mimeType); sizeBytes > max {
		return apierr.New(413, "too_large:media", fmt.Errorf("%d bytes exceeds the %d byte cap for %s", sizeBytes, max, mimeType))
	}
	return nil
}

func (s *mediaService) Upload(ctx context.Context, rd *ctxutil.RequestData, in UploadInput) (*types.MediaAsset, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if err := ValidateUpload(in.MimeType, in.SizeBytes); err != nil {
		return nil, err
	}

	assetID := uuid.New()
	key := ObjectKey(rd.UserID, assetID, in.MimeType)

	// Blob first, row second. A crash between the two leaks an orphan blob,
	// never a dangling pointer.
	if err := s.store.Upload(ctx, key, in.MimeType, io.LimitReader(in.Body, in.SizeBytes)); err != nil {
		if dberr.IsTimeout(err) || ctx.Err() != nil {
			return nil, apierr.Timeout("storage-upload")
		}
		return nil, apierr.Unavailable("unavailable:object-storage", fmt.Errorf("upload failed: %w", err))
	}

	asset := &types.MediaAsset{
		ID:          assetID,
		OwnerUserID: rd.UserID,
		ObjectKey:   key,
		MimeType:    in.MimeType,
		SizeBytes:   in.SizeBytes,
		Title:       in.Title,
		Language:    in.Language,
		DurationMS:  in.DurationMS,
	}
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		return s.assetRepo.Create(txc, asset)
	})
	if err != nil {
		s.log.Warn("asset row insert failed after upload, removing blob", "key", key, "error", err)
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.Error("orphan blob cleanup failed", "key", key, "error", delErr)
		}
		return nil, dberr.Map("db-insert-asset", err)
	}
	return asset, nil
}

func (s *mediaService) GetSignedURL(ctx context.Context, rd *ctxutil.RequestData, assetID uuid.UUID) (*AssetView, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	asset, err := s.assetRepo.GetByID(dbctx.Context{Ctx: ctx}, assetID)
	if err != nil {
		return nil, dberr.Map("db-read-asset", err)
	}
	if asset == nil {
		return nil, apierr.NotFound(fmt.Errorf("no asset with id %s", assetID))
	}
	if asset.OwnerUserID != rd.UserID && !(rd.IsRootAdmin && !rd.Impersonating) {
		return nil, apierr.Forbidden("forbidden:not-owner", fmt.Errorf("actor does not own this asset"))
	}
	url, err := s.store.SignedGetURL(asset.ObjectKey, objstore.SignedURLTTL)
	if err != nil {
		return nil, apierr.Unavailable("unavailable:url-signing", fmt.Errorf("sign url: %w", err))
	}
	return &AssetView{Asset: asset, URL: url}, nil
}

func (s *mediaService) ListMine(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.MediaAsset, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	assets, err := s.assetRepo.ListByOwner(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("db-list-assets", err)
	}
	return assets, nil
}
