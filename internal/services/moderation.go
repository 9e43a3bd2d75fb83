package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	registryrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/registry"
	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	regdomain "github.com/hakmun-app/hakmun-backend/internal/domain/registry"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// NeedsReviewHourlyLimit caps needs-review flags per actor per rolling hour,
// evaluated against the moderation action history.
const NeedsReviewHourlyLimit = 20

// ModerationResult reports a transition outcome. The already_* flags mark
// idempotent no-ops; callers must not treat them as fresh transitions.
type ModerationResult struct {
	Item               *types.RegistryItem `json:"item"`
	AlreadyUnderReview bool                `json:"already_under_review,omitempty"`
	AlreadyActive      bool                `json:"already_active,omitempty"`
	AlreadyApproved    bool                `json:"already_approved,omitempty"`
	AlreadyRejected    bool                `json:"already_rejected,omitempty"`
}

// ItemStatus is the full moderation view of one content item.
type ItemStatus struct {
	Item      *types.RegistryItem       `json:"item,omitempty"`
	OpenEntry *types.ReviewQueueEntry   `json:"open_entry,omitempty"`
	History   []*types.ModerationAction `json:"history"`
}

// ModerationService runs the quarantine state machine over registry rows.
// Every transition locks the registry row FOR UPDATE and commits the row
// change, the queue effect and the audit append atomically.
type ModerationService interface {
	NeedsReview(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error)
	Restore(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error)
	Approve(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error)
	Reject(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error)
	KeepUnderReview(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error)
	ItemStatus(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID) (*ItemStatus, error)
	ReviewInbox(ctx context.Context, limit int) ([]*types.ReviewQueueEntry, error)
	ReviewHistory(ctx context.Context, limit int) ([]*types.ReviewQueueEntry, error)
}

type moderationService struct {
	log            *logger.Logger
	runner         txn.Runner
	registrySvc    RegistryService
	registryRepo   registryrepo.RegistryRepo
	reviewRepo     registryrepo.ReviewRepo
	moderationRepo registryrepo.ModerationRepo
}

func NewModerationService(
	log *logger.Logger,
	runner txn.Runner,
	registrySvc RegistryService,
	registryRepo registryrepo.RegistryRepo,
	reviewRepo registryrepo.ReviewRepo,
	moderationRepo registryrepo.ModerationRepo,
) ModerationService {
	return &moderationService{
		log:            log.With("service", "ModerationService"),
		runner:         runner,
		registrySvc:    registrySvc,
		registryRepo:   registryRepo,
		reviewRepo:     reviewRepo,
		moderationRepo: moderationRepo,
	}
}

func snapshotJSON(item *types.RegistryItem) datatypes.JSON {
	b, _ := json.Marshal(regdomain.SnapshotOf(item))
	return datatypes.JSON(b)
}

// appendModerationAction writes one audit row carrying the actor, the
// before/after snapshots and the request correlation id.
func appendModerationAction(dbc dbctx.Context, repo registryrepo.ModerationRepo, rd *ctxutil.RequestData, item *types.RegistryItem, action, reason string, before, after datatypes.JSON) error {
	meta, _ := json.Marshal(map[string]string{
		"request_id": ctxutil.RequestID(dbc.Ctx),
	})
	return repo.Append(dbc, &types.ModerationAction{
		ContentType:    item.ContentType,
		ContentID:      item.ContentID,
		ActorUserID:    rd.UserID,
		Action:         action,
		Reason:         reason,
		BeforeSnapshot: before,
		AfterSnapshot:  after,
		Meta:           datatypes.JSON(meta),
	})
}

func requireRootAdmin(rd *ctxutil.RequestData) error {
	if rd == nil || !rd.IsRootAdmin || rd.Impersonating {
		return apierr.Forbidden("forbidden:root-admin-only", fmt.Errorf("root admin required"))
	}
	return nil
}

func (s *moderationService) NeedsReview(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	var result *ModerationResult
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		ok, err := s.registrySvc.CanModerate(txc, rd, contentType, contentID)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.Forbidden("forbidden:not-owner", fmt.Errorf("actor may not flag this content"))
		}

		since := time.Now().Add(-time.Hour)
		count, err := s.moderationRepo.CountByActorSince(txc, rd.UserID, types.ActionNeedsReview, since)
		if err != nil {
			return dberr.Map("moderation-rate-check", err)
		}
		if count >= NeedsReviewHourlyLimit {
			return apierr.RateLimited("rate_limited:needs-review",
				fmt.Errorf("actor flagged %d items in the last hour", count))
		}

		item, err := s.registrySvc.EnsureItemForUpdate(txc, contentType, contentID)
		if err != nil {
			return err
		}
		if item.OperationalStatus == types.StatusUnderReview {
			result = &ModerationResult{Item: item, AlreadyUnderReview: true}
			return nil
		}

		before := snapshotJSON(item)
		item.OperationalStatus = types.StatusUnderReview
		if err := s.registryRepo.Save(txc, item); err != nil {
			return dberr.Map("moderation-save", err)
		}
		entry := &types.ReviewQueueEntry{
			RegistryItemID:  item.ID,
			FlaggedByUserID: rd.UserID,
			FlaggedAt:       time.Now(),
			Reason:          reason,
			PriorSnapshot:   before,
		}
		if err := s.reviewRepo.CreateEntry(txc, entry); err != nil {
			return dberr.Map("moderation-queue-insert", err)
		}
		if err := appendModerationAction(txc, s.moderationRepo, rd, item, types.ActionNeedsReview, reason, before, snapshotJSON(item)); err != nil {
			return dberr.Map("moderation-audit", err)
		}
		result = &ModerationResult{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *moderationService) Restore(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	var result *ModerationResult
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		item, err := s.lockExisting(txc, contentType, contentID)
		if err != nil {
			return err
		}
		if item == nil || item.OperationalStatus == types.StatusActive {
			result = &ModerationResult{Item: item, AlreadyActive: true}
			return nil
		}

		entry, err := s.reviewRepo.GetOpenByRegistryItemID(txc, item.ID)
		if err != nil {
			return dberr.Map("moderation-queue-read", err)
		}
		if entry == nil {
			return apierr.Conflict("conflict:no-open-review", fmt.Errorf("item is under review but no open queue entry exists"))
		}
		var prior regdomain.Snapshot
		if err := json.Unmarshal(entry.PriorSnapshot, &prior); err != nil {
			return apierr.Conflict("conflict:invalid-snapshot", fmt.Errorf("prior snapshot is unreadable: %w", err))
		}

		before := snapshotJSON(item)
		item.Audience = prior.Audience
		item.GlobalState = prior.GlobalState
		item.OperationalStatus = prior.OperationalStatus
		if err := s.registryRepo.Save(txc, item); err != nil {
			return dberr.Map("moderation-save", err)
		}
		if _, err := s.reviewRepo.ResolveAllOpen(txc, item.ID, rd.UserID, types.ResolutionRestored, time.Now()); err != nil {
			return dberr.Map("moderation-queue-resolve", err)
		}
		if err := appendModerationAction(txc, s.moderationRepo, rd, item, types.ActionRestore, reason, before, snapshotJSON(item)); err != nil {
			return dberr.Map("moderation-audit", err)
		}
		result = &ModerationResult{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *moderationService) Approve(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	var result *ModerationResult
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		item, err := s.lockExisting(txc, contentType, contentID)
		if err != nil {
			return err
		}
		if item == nil || item.Audience != types.AudienceGlobal || item.GlobalState == nil {
			return apierr.Conflict("conflict:not-global", fmt.Errorf("content is not in the global flow"))
		}
		if item.OperationalStatus == types.StatusUnderReview {
			return apierr.Conflict("conflict:under-review", fmt.Errorf("content is quarantined; restore it first"))
		}
		if *item.GlobalState == types.GlobalStateApproved {
			result = &ModerationResult{Item: item, AlreadyApproved: true}
			return nil
		}
		if *item.GlobalState != types.GlobalStatePreliminary {
			return apierr.Conflict("conflict:invalid-state", fmt.Errorf("cannot approve from state %q", *item.GlobalState))
		}

		before := snapshotJSON(item)
		approved := types.GlobalStateApproved
		item.GlobalState = &approved
		if err := s.registryRepo.Save(txc, item); err != nil {
			return dberr.Map("moderation-save", err)
		}
		if _, err := s.reviewRepo.ResolveAllOpen(txc, item.ID, rd.UserID, types.ResolutionRestored, time.Now()); err != nil {
			return dberr.Map("moderation-queue-resolve", err)
		}
		if err := appendModerationAction(txc, s.moderationRepo, rd, item, types.ActionApprove, reason, before, snapshotJSON(item)); err != nil {
			return dberr.Map("moderation-audit", err)
		}
		result = &ModerationResult{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *moderationService) Reject(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	var result *ModerationResult
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		item, err := s.lockExisting(txc, contentType, contentID)
		if err != nil {
			return err
		}
		if item == nil || item.Audience != types.AudienceGlobal || item.GlobalState == nil {
			return apierr.Conflict("conflict:not-global", fmt.Errorf("content is not in the global flow"))
		}
		if item.OperationalStatus == types.StatusUnderReview {
			return apierr.Conflict("conflict:under-review", fmt.Errorf("content is quarantined; restore it first"))
		}
		if *item.GlobalState == types.GlobalStateRejected {
			result = &ModerationResult{Item: item, AlreadyRejected: true}
			return nil
		}

		before := snapshotJSON(item)
		rejected := types.GlobalStateRejected
		item.GlobalState = &rejected
		if err := s.registryRepo.Save(txc, item); err != nil {
			return dberr.Map("moderation-save", err)
		}
		if _, err := s.reviewRepo.ResolveAllOpen(txc, item.ID, rd.UserID, types.ResolutionRejected, time.Now()); err != nil {
			return dberr.Map("moderation-queue-resolve", err)
		}
		if err := appendModerationAction(txc, s.moderationRepo, rd, item, types.ActionReject, reason, before, snapshotJSON(item)); err != nil {
			return dberr.Map("moderation-audit", err)
		}
		result = &ModerationResult{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *moderationService) KeepUnderReview(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, reason string) (*ModerationResult, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	var result *ModerationResult
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		item, err := s.lockExisting(txc, contentType, contentID)
		if err != nil {
			return err
		}
		if item == nil || item.OperationalStatus != types.StatusUnderReview {
			return apierr.Conflict("conflict:not-under-review", fmt.Errorf("content is not under review"))
		}
		entry, err := s.reviewRepo.GetOpenByRegistryItemID(txc, item.ID)
		if err != nil {
			return dberr.Map("moderation-queue-read", err)
		}
		if entry == nil {
			return apierr.Conflict("conflict:no-open-review", fmt.Errorf("item is under review but no open queue entry exists"))
		}

		// Registry and queue stay as they are; only the audit trail grows.
		snap := snapshotJSON(item)
		if err := appendModerationAction(txc, s.moderationRepo, rd, item, types.ActionKeepUnderReview, reason, snap, snap); err != nil {
			return dberr.Map("moderation-audit", err)
		}
		result = &ModerationResult{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockExisting locks the registry row when one exists, after confirming the
// underlying content is real. A nil row means the content has never entered
// the registry and is implicitly personal and active.
func (s *moderationService) lockExisting(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error) {
	item, err := s.registryRepo.GetByContentForUpdate(dbc, contentType, contentID)
	if err != nil {
		return nil, dberr.Map("moderation-lock", err)
	}
	if item != nil {
		return item, nil
	}
	_, exists, err := s.registrySvc.ResolveContent(dbc, contentType, contentID)
	if err != nil {
		return nil, dberr.Map("moderation-resolve", err)
	}
	if !exists {
		return nil, apierr.NotFound(fmt.Errorf("no %s with id %s", contentType, contentID))
	}
	return nil, nil
}

func (s *moderationService) ItemStatus(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID) (*ItemStatus, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.registrySvc.CanModerate(dbc, rd, contentType, contentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.Forbidden("forbidden:not-owner", fmt.Errorf("actor may not inspect this content"))
	}

	status := &ItemStatus{}
	status.Item, err = s.registryRepo.GetByContent(dbc, contentType, contentID)
	if err != nil {
		return nil, dberr.Map("moderation-read", err)
	}
	if status.Item != nil {
		status.OpenEntry, err = s.reviewRepo.GetOpenByRegistryItemID(dbc, status.Item.ID)
		if err != nil {
			return nil, dberr.Map("moderation-queue-read", err)
		}
	}
	status.History, err = s.moderationRepo.ListByContent(dbc, contentType, contentID, 0)
	if err != nil {
		return nil, dberr.Map("moderation-read", err)
	}
	return status, nil
}

func (s *moderationService) ReviewInbox(ctx context.Context, limit int) ([]*types.ReviewQueueEntry, error) {
	entries, err := s.reviewRepo.ListOpen(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, dberr.Map("moderation-inbox", err)
	}
	return entries, nil
}

func (s *moderationService) ReviewHistory(ctx context.Context, limit int) ([]*types.ReviewQueueEntry, error) {
	entries, err := s.reviewRepo.ListResolved(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, dberr.Map("moderation-inbox", err)
	}
	return entries, nil
}
