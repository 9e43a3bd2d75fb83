package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type ContentHandler struct {
	contentSvc services.ContentService
}

func NewContentHandler(contentSvc services.ContentService) *ContentHandler {
	return &ContentHandler{contentSvc: contentSvc}
}

// POST /content/reading-items
func (ch *ContentHandler) CreateReadingItem(c *gin.Context) {
	var req services.ReadingItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	item, reg, err := ch.contentSvc.CreateReadingItem(c.Request.Context(), rd, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"readingItem": item, "registry": reg})
}

// GET /content/reading-items
func (ch *ContentHandler) ListReadingItems(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	items, err := ch.contentSvc.ListMyReadingItems(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"readingItems": items})
}

// POST /content/sentences
func (ch *ContentHandler) CreateSentence(c *gin.Context) {
	var req services.SentenceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	sent, reg, err := ch.contentSvc.CreateSentence(c.Request.Context(), rd, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"sentence": sent, "registry": reg})
}

// GET /content/sentences
func (ch *ContentHandler) ListSentences(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	sentences, err := ch.contentSvc.ListMySentences(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sentences": sentences})
}

// POST /content/patterns
func (ch *ContentHandler) CreatePattern(c *gin.Context) {
	var req services.PatternInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	pat, reg, err := ch.contentSvc.CreatePattern(c.Request.Context(), rd, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"pattern": pat, "registry": reg})
}

// GET /content/patterns
func (ch *ContentHandler) ListPatterns(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	patterns, err := ch.contentSvc.ListMyPatterns(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"patterns": patterns})
}

// POST /content/:type/:id/audience
func (ch *ContentHandler) SetAudience(c *gin.Context) {
	contentType := pathContentType(c.Param("type"))
	contentID, err := uuid.Parse(c.Param("id"))
	if contentType == "" || err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req struct {
		Verb string `json:"verb"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	item, err := ch.contentSvc.SetAudience(c.Request.Context(), rd, contentType, contentID, req.Verb)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"registry": item})
}

// pathContentType maps the URL segment to the registry discriminator.
func pathContentType(segment string) string {
	switch segment {
	case "reading-items":
		return types.ContentTypeReadingItem
	case "sentences":
		return types.ContentTypeSentence
	case "patterns":
		return types.ContentTypePattern
	}
	return ""
}
