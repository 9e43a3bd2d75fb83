package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type VocabHandler struct {
	vocabSvc services.VocabService
}

func NewVocabHandler(vocabSvc services.VocabService) *VocabHandler {
	return &VocabHandler{vocabSvc: vocabSvc}
}

// POST /vocab/pins
func (vh *VocabHandler) Pin(c *gin.Context) {
	var req services.VocabPinInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	pin, err := vh.vocabSvc.Pin(c.Request.Context(), rd, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"pin": pin})
}

// DELETE /vocab/pins/:word
func (vh *VocabHandler) Unpin(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	result, err := vh.vocabSvc.Unpin(c.Request.Context(), rd, c.Param("word"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// GET /vocab/pins
func (vh *VocabHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	pins, err := vh.vocabSvc.List(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pins": pins})
}
