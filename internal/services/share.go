package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	classrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/classroom"
	registryrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/registry"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// RevokeResult carries the number of grants a revoke touched. Zero is a
// success, not an error; revoke is idempotent.
type RevokeResult struct {
	Revoked int64 `json:"revoked"`
}

// SharedGrantView pairs an active grant with its registry row when one
// exists. Quarantined content is filtered out before this view is built.
type SharedGrantView struct {
	Grant *types.ShareGrant   `json:"grant"`
	Item  *types.RegistryItem `json:"item,omitempty"`
}

type ShareService interface {
	// ShareWithUser grants a user access. Teachers, root admins and the
	// effective owner may share; repeat shares are idempotent.
	ShareWithUser(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, granteeUserID uuid.UUID) (*types.ShareGrant, error)
	// ShareWithClass grants a class access. Teacher or root admin only;
	// 501 when the class subsystem tables are absent.
	ShareWithClass(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, classID uuid.UUID) (*types.ShareGrant, error)
	RevokeUser(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, granteeUserID uuid.UUID) (*RevokeResult, error)
	RevokeClass(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, classID uuid.UUID) (*RevokeResult, error)
	SharedWithMe(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*SharedGrantView, error)
	SharedWithClass(ctx context.Context, rd *ctxutil.RequestData, classID uuid.UUID, limit int) ([]*SharedGrantView, error)
}

type shareService struct {
	log          *logger.Logger
	registrySvc  RegistryService
	registryRepo registryrepo.RegistryRepo
	shareRepo    registryrepo.ShareRepo
	classRepo    classrepo.ClassRepo
}

func NewShareService(
	log *logger.Logger,
	registrySvc RegistryService,
	registryRepo registryrepo.RegistryRepo,
	shareRepo registryrepo.ShareRepo,
	classRepo classrepo.ClassRepo,
) ShareService {
	return &shareService{
		log:          log.With("service", "ShareService"),
		registrySvc:  registrySvc,
		registryRepo: registryRepo,
		shareRepo:    shareRepo,
		classRepo:    classRepo,
	}
}

func isTeacherOrRoot(rd *ctxutil.RequestData) bool {
	if rd == nil {
		return false
	}
	if rd.IsRootAdmin && !rd.Impersonating {
		return true
	}
	return rd.Role == types.RoleTeacher
}

// canShareUser mirrors the asymmetry between the two grant kinds: a user
// grant is open to the effective owner even when no registry row exists,
// while a class grant demands an explicit teacher or root role.
func (s *shareService) canShareUser(dbc dbctx.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID) (bool, error) {
	if isTeacherOrRoot(rd) {
		return true, nil
	}
	item, err := s.registryRepo.GetByContent(dbc, contentType, contentID)
	if err != nil {
		return false, dberr.Map("share-registry-read", err)
	}
	if item != nil {
		return item.OwnerUserID == rd.UserID, nil
	}
	// No registry row: the module-table creator is the implicit owner.
	owner, exists, err := s.registrySvc.ResolveContent(dbc, contentType, contentID)
	if err != nil {
		return false, dberr.Map("share-resolve", err)
	}
	if !exists {
		return false, apierr.NotFound(fmt.Errorf("no %s with id %s", contentType, contentID))
	}
	return owner == rd.UserID, nil
}

func (s *shareService) ShareWithUser(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, granteeUserID uuid.UUID) (*types.ShareGrant, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.canShareUser(dbc, rd, contentType, contentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.Forbidden("forbidden:not-owner", fmt.Errorf("actor may not share this content"))
	}
	grant := &types.ShareGrant{
		ContentType:     contentType,
		ContentID:       contentID,
		GrantType:       types.GrantTypeUser,
		GranteeID:       granteeUserID,
		GrantedByUserID: rd.UserID,
	}
	if err := s.shareRepo.CreateIgnoreConflict(dbc, grant); err != nil {
		return nil, dberr.Map("share-insert", err)
	}
	return grant, nil
}

func (s *shareService) ShareWithClass(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, classID uuid.UUID) (*types.ShareGrant, error) {
	if !isTeacherOrRoot(rd) {
		return nil, apierr.Forbidden("forbidden:teacher-or-root-only", fmt.Errorf("class shares require teacher or root admin"))
	}
	if !s.classRepo.HasClassTable() {
		return nil, apierr.NotImplemented("not_implemented:classes", fmt.Errorf("class subsystem is not provisioned"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.classRepo.ClassExists(dbc, classID)
	if err != nil {
		return nil, dberr.Map("share-class-read", err)
	}
	if !exists {
		return nil, apierr.NotFound(fmt.Errorf("no class with id %s", classID))
	}
	if _, exists, err = s.registrySvc.ResolveContent(dbc, contentType, contentID); err != nil {
		return nil, dberr.Map("share-resolve", err)
	} else if !exists {
		return nil, apierr.NotFound(fmt.Errorf("no %s with id %s", contentType, contentID))
	}
	grant := &types.ShareGrant{
		ContentType:     contentType,
		ContentID:       contentID,
		GrantType:       types.GrantTypeClass,
		GranteeID:       classID,
		GrantedByUserID: rd.UserID,
	}
	if err := s.shareRepo.CreateIgnoreConflict(dbc, grant); err != nil {
		return nil, dberr.Map("share-insert", err)
	}
	return grant, nil
}

func (s *shareService) revoke(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, grantType string, granteeID uuid.UUID) (*RevokeResult, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.canShareUser(dbc, rd, contentType, contentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.Forbidden("forbidden:not-owner", fmt.Errorf("actor may not revoke shares on this content"))
	}
	n, err := s.shareRepo.Revoke(dbc, contentType, contentID, grantType, granteeID, time.Now())
	if err != nil {
		return nil, dberr.Map("share-revoke", err)
	}
	return &RevokeResult{Revoked: n}, nil
}

func (s *shareService) RevokeUser(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, granteeUserID uuid.UUID) (*RevokeResult, error) {
	return s.revoke(ctx, rd, contentType, contentID, types.GrantTypeUser, granteeUserID)
}

func (s *shareService) RevokeClass(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID, classID uuid.UUID) (*RevokeResult, error) {
	if !isTeacherOrRoot(rd) {
		return nil, apierr.Forbidden("forbidden:teacher-or-root-only", fmt.Errorf("class shares require teacher or root admin"))
	}
	return s.revoke(ctx, rd, contentType, contentID, types.GrantTypeClass, classID)
}

func (s *shareService) SharedWithMe(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*SharedGrantView, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	grants, err := s.shareRepo.ListActiveByGrantee(dbc, types.GrantTypeUser, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("share-list", err)
	}
	return s.attachRegistry(dbc, grants)
}

func (s *shareService) SharedWithClass(ctx context.Context, rd *ctxutil.RequestData, classID uuid.UUID, limit int) ([]*SharedGrantView, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	if !s.classRepo.HasMembershipTable() {
		return nil, apierr.NotImplemented("not_implemented:class-memberships", fmt.Errorf("class subsystem is not provisioned"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	if !(rd.IsRootAdmin && !rd.Impersonating) {
		member, err := s.classRepo.IsMember(dbc, classID, rd.UserID)
		if err != nil {
			return nil, dberr.Map("share-class-read", err)
		}
		if !member {
			return nil, apierr.Forbidden("forbidden:not-class-member", fmt.Errorf("actor is not a member of this class"))
		}
	}
	grants, err := s.shareRepo.ListActiveByGrantee(dbc, types.GrantTypeClass, classID, limit)
	if err != nil {
		return nil, dberr.Map("share-list", err)
	}
	return s.attachRegistry(dbc, grants)
}

// attachRegistry joins grants to their registry rows and drops quarantined
// content. Grants to content with no registry row pass through untouched.
func (s *shareService) attachRegistry(dbc dbctx.Context, grants []*types.ShareGrant) ([]*SharedGrantView, error) {
	byType := map[string][]uuid.UUID{}
	for _, g := range grants {
		byType[g.ContentType] = append(byType[g.ContentType], g.ContentID)
	}
	items := map[string]*types.RegistryItem{}
	for contentType, ids := range byType {
		rows, err := s.registryRepo.GetByContents(dbc, contentType, ids)
		if err != nil {
			return nil, dberr.Map("share-registry-read", err)
		}
		for _, it := range rows {
			items[it.ContentType+"/"+it.ContentID.String()] = it
		}
	}
	out := make([]*SharedGrantView, 0, len(grants))
	for _, g := range grants {
		it := items[g.ContentType+"/"+g.ContentID.String()]
		if it != nil && it.OperationalStatus == types.StatusUnderReview {
			continue
		}
		out = append(out, &SharedGrantView{Grant: g, Item: it})
	}
	return out, nil
}
