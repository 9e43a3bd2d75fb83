package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

// contentRef is the (content_type, content_id) pair every moderation and
// share request names.
type contentRef struct {
	ContentType string    `json:"contentType"`
	ContentID   uuid.UUID `json:"contentId"`
}

func (r contentRef) valid() bool {
	return r.ContentType != "" && r.ContentID != uuid.Nil
}

func limitQuery(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}

type LibraryHandler struct {
	librarySvc    services.LibraryService
	moderationSvc services.ModerationService
	shareSvc      services.ShareService
}

func NewLibraryHandler(librarySvc services.LibraryService, moderationSvc services.ModerationService, shareSvc services.ShareService) *LibraryHandler {
	return &LibraryHandler{librarySvc: librarySvc, moderationSvc: moderationSvc, shareSvc: shareSvc}
}

// GET /library/global
func (lh *LibraryHandler) Global(c *gin.Context) {
	entries, err := lh.librarySvc.Global(c.Request.Context(), limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// GET /library/my-content
func (lh *LibraryHandler) MyContent(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	entries, err := lh.librarySvc.MyContent(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// GET /library/shared-with-me
func (lh *LibraryHandler) SharedWithMe(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	grants, err := lh.shareSvc.SharedWithMe(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"grants": grants})
}

// GET /library/shared-with-class?classId=
func (lh *LibraryHandler) SharedWithClass(c *gin.Context) {
	classID, err := uuid.Parse(c.Query("classId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	grants, err := lh.shareSvc.SharedWithClass(c.Request.Context(), rd, classID, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"grants": grants})
}

// GET /library/review-inbox
func (lh *LibraryHandler) ReviewInbox(c *gin.Context) {
	entries, err := lh.moderationSvc.ReviewInbox(c.Request.Context(), limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// GET /library/review-inbox/history
func (lh *LibraryHandler) ReviewHistory(c *gin.Context) {
	entries, err := lh.moderationSvc.ReviewHistory(c.Request.Context(), limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// GET /library/item-status?contentType=&contentId=
func (lh *LibraryHandler) ItemStatus(c *gin.Context) {
	contentID, err := uuid.Parse(c.Query("contentId"))
	ref := contentRef{ContentType: c.Query("contentType"), ContentID: contentID}
	if err != nil || !ref.valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	status, err := lh.moderationSvc.ItemStatus(c.Request.Context(), rd, ref.ContentType, ref.ContentID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, status)
}

type moderationVerb func(lh *LibraryHandler, c *gin.Context, ref contentRef, reason string) (*services.ModerationResult, error)

func (lh *LibraryHandler) moderate(c *gin.Context, verb moderationVerb) {
	var req struct {
		contentRef
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := verb(lh, c, req.contentRef, req.Reason)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /library/needs-review
func (lh *LibraryHandler) NeedsReview(c *gin.Context) {
	lh.moderate(c, func(lh *LibraryHandler, c *gin.Context, ref contentRef, reason string) (*services.ModerationResult, error) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		return lh.moderationSvc.NeedsReview(c.Request.Context(), rd, ref.ContentType, ref.ContentID, reason)
	})
}

// POST /library/restore
func (lh *LibraryHandler) Restore(c *gin.Context) {
	lh.moderate(c, func(lh *LibraryHandler, c *gin.Context, ref contentRef, reason string) (*services.ModerationResult, error) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		return lh.moderationSvc.Restore(c.Request.Context(), rd, ref.ContentType, ref.ContentID, reason)
	})
}

// POST /library/approve
func (lh *LibraryHandler) Approve(c *gin.Context) {
	lh.moderate(c, func(lh *LibraryHandler, c *gin.Context, ref contentRef, reason string) (*services.ModerationResult, error) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		return lh.moderationSvc.Approve(c.Request.Context(), rd, ref.ContentType, ref.ContentID, reason)
	})
}

// POST /library/reject
func (lh *LibraryHandler) Reject(c *gin.Context) {
	lh.moderate(c, func(lh *LibraryHandler, c *gin.Context, ref contentRef, reason string) (*services.ModerationResult, error) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		return lh.moderationSvc.Reject(c.Request.Context(), rd, ref.ContentType, ref.ContentID, reason)
	})
}

// POST /library/keep-under-review
func (lh *LibraryHandler) KeepUnderReview(c *gin.Context) {
	lh.moderate(c, func(lh *LibraryHandler, c *gin.Context, ref contentRef, reason string) (*services.ModerationResult, error) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		return lh.moderationSvc.KeepUnderReview(c.Request.Context(), rd, ref.ContentType, ref.ContentID, reason)
	})
}

// POST /library/share/user
func (lh *LibraryHandler) ShareWithUser(c *gin.Context) {
	var req struct {
		contentRef
		GranteeUserID uuid.UUID `json:"granteeUserId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() || req.GranteeUserID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	grant, err := lh.shareSvc.ShareWithUser(c.Request.Context(), rd, req.ContentType, req.ContentID, req.GranteeUserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"grant": grant})
}

// POST /library/share/class
func (lh *LibraryHandler) ShareWithClass(c *gin.Context) {
	var req struct {
		contentRef
		ClassID uuid.UUID `json:"classId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() || req.ClassID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	grant, err := lh.shareSvc.ShareWithClass(c.Request.Context(), rd, req.ContentType, req.ContentID, req.ClassID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"grant": grant})
}

// POST /library/share/user/revoke
func (lh *LibraryHandler) RevokeUserShare(c *gin.Context) {
	var req struct {
		contentRef
		GranteeUserID uuid.UUID `json:"granteeUserId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() || req.GranteeUserID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	result, err := lh.shareSvc.RevokeUser(c.Request.Context(), rd, req.ContentType, req.ContentID, req.GranteeUserID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// POST /library/share/class/revoke
func (lh *LibraryHandler) RevokeClassShare(c *gin.Context) {
	var req struct {
		contentRef
		ClassID uuid.UUID `json:"classId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() || req.ClassID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	result, err := lh.shareSvc.RevokeClass(c.Request.Context(), rd, req.ContentType, req.ContentID, req.ClassID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
